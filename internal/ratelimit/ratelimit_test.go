package ratelimit

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"siparis-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func unreachableRedis(t *testing.T) *RedisStorage {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, "test:")
}

func limitedApp(l *Limiter, rule Rule) *fiber.App {
	app := fiber.New()
	app.Post("/", l.Middleware(rule), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func post(t *testing.T, app *fiber.App, header, value string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After")
}

func TestMiddleware(t *testing.T) {
	rule := Rule{Max: 2, Window: time.Minute, Message: "Yavaş", Key: UserKey("test")}
	userA := &auth.Identity{UserID: uuid.New()}
	userB := &auth.Identity{UserID: uuid.New()}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") == "b" {
			c.Locals(auth.CtxIdentityKey, userB)
		} else {
			c.Locals(auth.CtxIdentityKey, userA)
		}
		return c.Next()
	})
	app.Post("/", NewLimiter("memory", "", "").Middleware(rule), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		if code, _ := post(t, app, "X-User", "a"); code != fiber.StatusNoContent {
			t.Fatalf("request %d: got %d", i, code)
		}
	}

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-User", "a")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if ra := resp.Header.Get("Retry-After"); ra == "" || ra == "0" {
		t.Errorf("Retry-After header: %q", ra)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "TOO_MANY_REQUESTS" || body["error"] != "Yavaş" {
		t.Errorf("unexpected body %v", body)
	}

	if code, _ := post(t, app, "X-User", "b"); code != fiber.StatusNoContent {
		t.Errorf("other user must not be limited, got %d", code)
	}
}

func TestUnreachableRedisFallsBackToMemory(t *testing.T) {
	storage := unreachableRedis(t)
	app := limitedApp(&Limiter{redis: storage}, Rule{Max: 2, Window: time.Minute})

	// İlk istek Redis hatasına rağmen geçer; sonrakiler memory sayaçla sınırlanır
	want := []int{fiber.StatusNoContent, fiber.StatusNoContent, fiber.StatusNoContent, fiber.StatusTooManyRequests}
	for i, w := range want {
		if code, _ := post(t, app, "", ""); code != w {
			t.Fatalf("request %d: got %d, want %d", i, code, w)
		}
	}
	if storage.Healthy() {
		t.Error("storage must be marked unhealthy after a redis error")
	}
}

func TestRedisStorageCooldown(t *testing.T) {
	now := time.Date(2025, 12, 9, 10, 0, 0, 0, time.UTC)
	s := unreachableRedis(t)
	s.now = func() time.Time { return now }

	if !s.Healthy() {
		t.Fatal("new storage must be healthy")
	}
	if got, err := s.Get(""); got != nil || err != nil {
		t.Errorf("empty key: got %v %v", got, err)
	}
	if err := s.Set("k", nil, time.Minute); err != nil {
		t.Errorf("empty value must be ignored: %v", err)
	}

	if _, err := s.Get("k"); err == nil {
		t.Fatal("expected redis error")
	}
	if s.Healthy() {
		t.Error("must be unhealthy right after an error")
	}

	now = now.Add(redisCooldown - time.Second)
	if s.Healthy() {
		t.Error("must stay unhealthy during cooldown")
	}
	now = now.Add(time.Second)
	if !s.Healthy() {
		t.Error("must recover after cooldown")
	}

	s.track(errors.New("bağlantı yok"))
	if s.Healthy() {
		t.Error("new error must restart cooldown")
	}
}

func TestNewLimiter(t *testing.T) {
	if l := NewLimiter("memory", "", ""); l.redis != nil {
		t.Error("memory strategy must not use redis")
	}
	if l := NewLimiter("redis", "://bozuk", ""); l.redis != nil {
		t.Error("invalid url must fall back to memory")
	}
	l := NewLimiter("redis", "redis://127.0.0.1:6379/0", "rl:")
	if l.redis == nil || l.redis.prefix != "rl:" {
		t.Errorf("redis strategy must build a redis storage, got %+v", l.redis)
	}
	_ = l.Close()
}

func TestLoginKey(t *testing.T) {
	var got string
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		got = loginKey(c)
		return nil
	})

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email_or_phone":" Sube01@Borek.local ","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	if _, err := app.Test(req, -1); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, ":login:sube01@borek.local") {
		t.Errorf("unexpected key %q", got)
	}
}
