package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

type minLength int

func (m minLength) CheckPassword(_ context.Context, pw string) error {
	if len(pw) < int(m) {
		return apperr.Validation("Şifre çok kısa")
	}
	return nil
}

func authed(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func loginToken(t *testing.T, app *fiber.App, identifier, password string) string {
	t.Helper()
	resp, body := login(t, app, identifier, password)
	token, _ := body["token"].(string)
	if resp.StatusCode != fiber.StatusOK || token == "" {
		t.Fatalf("login failed: %d %v", resp.StatusCode, body)
	}
	return token
}

func TestProfileUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	seedUsers(t, db)
	app, _ := newAuthApp(db)
	token := loginToken(t, app, "sube01@borek.local", "12345678")

	resp, body := authed(t, app, http.MethodGet, "/profile/me", token, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get profile: got %d %v", resp.StatusCode, body)
	}
	branch, _ := body["branch"].(map[string]any)
	if branch == nil || branch["name"] != "Borekci Sube 01" {
		t.Fatalf("branch missing in profile: %v", body)
	}

	resp, body = authed(t, app, http.MethodPut, "/profile/me", token, fiber.Map{
		"display_name": "  Sube Bir  ",
		"manager":      "Ayse Yilmaz",
		"phone":        "0555 111 22 33",
		"address":      "Merkez Mah. 1",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update profile: got %d %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	branch, _ = body["branch"].(map[string]any)
	if user["display_name"] != "Sube Bir" {
		t.Errorf("display name not trimmed/updated: %v", user)
	}
	if branch["manager"] != "Ayse Yilmaz" || branch["phone"] != "0555 111 22 33" || branch["address"] != "Merkez Mah. 1" {
		t.Errorf("branch contact not updated: %v", branch)
	}
	if branch["name"] != "Borekci Sube 01" {
		t.Errorf("branch name must stay when omitted: %v", branch["name"])
	}

	tests := []struct {
		name     string
		body     fiber.Map
		status   int
		wantCode string
	}{
		{"email taken", fiber.Map{"email": "ESKI@borek.local"}, fiber.StatusConflict, "EMAIL_IN_USE"},
		{"bad email", fiber.Map{"email": "gecersiz"}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"short display name", fiber.Map{"display_name": "A"}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"short phone", fiber.Map{"phone": "12"}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := authed(t, app, http.MethodPut, "/profile/me", token, tt.body)
			if resp.StatusCode != tt.status || body["code"] != tt.wantCode {
				t.Errorf("got %d %v, want %d %s", resp.StatusCode, body, tt.status, tt.wantCode)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	db := testutil.NewDB(t)
	seedUsers(t, db)
	app, _ := newAuthApp(db)
	token := loginToken(t, app, "sube01@borek.local", "12345678")

	resp, body := authed(t, app, http.MethodPut, "/profile/password", token, fiber.Map{
		"current_password": "yanlis-sifre", "new_password": "yeni-sifre-1",
	})
	if resp.StatusCode != fiber.StatusUnauthorized || body["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("wrong current password: got %d %v", resp.StatusCode, body)
	}

	resp, body = authed(t, app, http.MethodPut, "/profile/password", token, fiber.Map{
		"current_password": "12345678", "new_password": "kisa",
	})
	if resp.StatusCode != fiber.StatusBadRequest || body["code"] != "VALIDATION_ERROR" {
		t.Errorf("policy violation: got %d %v", resp.StatusCode, body)
	}

	resp, body = authed(t, app, http.MethodPut, "/profile/password", token, fiber.Map{
		"current_password": "12345678", "new_password": "yeni-sifre-1",
	})
	if resp.StatusCode != fiber.StatusOK || body["updated"] != true {
		t.Fatalf("change password: got %d %v", resp.StatusCode, body)
	}

	if resp, _ := login(t, app, "sube01@borek.local", "12345678"); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("old password still accepted: %d", resp.StatusCode)
	}
	loginToken(t, app, "sube01@borek.local", "yeni-sifre-1")
}
