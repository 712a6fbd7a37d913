package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/auth"
	"siparis-backend/internal/models"
	"siparis-backend/internal/settings"
	"siparis-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	svc         *Service
	center      *models.Center
	otherCenter *models.Center
	branch      *models.Branch
	otherBranch *models.Branch
	actor       Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{db: db, actor: Actor{ID: uuid.New(), Name: "Admin"}}
	f.svc = NewService(db, settings.NewService(db))
	f.center = testutil.Center(t, db, "Borekci Merkez 01")
	f.otherCenter = testutil.Center(t, db, "Borekci Merkez 02")
	f.branch = testutil.Branch(t, db, "Borekci Sube 01", f.center)
	f.otherBranch = testutil.Branch(t, db, "Borekci Sube 02", f.otherCenter)
	return f
}

func ptr[T any](v T) *T { return &v }

func TestListBranchesScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.User(t, f.db, "sube01@borek.local", "12345678", models.RoleBranch, f.branch, nil)

	branches, err := f.svc.ListBranches(ctx, access.CenterScope{CenterID: f.center.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 1 || branches[0].ID != f.branch.ID {
		t.Fatalf("center scope: got %+v", branches)
	}
	resp := NewBranchResponse(&branches[0])
	if resp.UserEmail == nil || *resp.UserEmail != "sube01@borek.local" {
		t.Errorf("branch user email: %+v", resp.UserEmail)
	}
	if resp.CenterName == nil || *resp.CenterName != "Borekci Merkez 01" || !resp.PriceAdjustmentPercent.IsZero() {
		t.Errorf("unexpected response %+v", resp)
	}

	all, err := f.svc.ListBranches(ctx, access.AdminScope{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("admin scope: expected 2 branches, got %d", len(all))
	}
}

func TestCreateAndUpdateBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBranch(ctx, NewBranchInput(ptr(" Borekci Sube 03 "), &f.center.ID, ptr("Ali"), nil, ptr("SUBE03@borek.local"), nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Name != "Borekci Sube 03" || b.Email != "sube03@borek.local" || !b.IsActive || b.Center == nil {
		t.Errorf("unexpected branch %+v", b)
	}

	if _, err := f.svc.CreateBranch(ctx, NewBranchInput(ptr("Borekci Sube 03"), nil, nil, nil, nil, nil)); apperr.CodeOf(err) != "BRANCH_EXISTS" {
		t.Errorf("duplicate name: got %v", err)
	}
	if _, err := f.svc.CreateBranch(ctx, NewBranchInput(ptr("Yeni Sube"), ptr(uuid.New()), nil, nil, nil, nil)); apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("unknown center: got %v", err)
	}
	if _, err := f.svc.CreateBranch(ctx, NewBranchInput(ptr("Yeni Sube"), nil, nil, nil, ptr("gecersiz"), nil)); apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("bad email: got %v", err)
	}

	updated, err := f.svc.UpdateBranch(ctx, b.ID, NewBranchInput(nil, &f.otherCenter.ID, nil, ptr("0212 000 00 00"), nil, nil))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CenterID == nil || *updated.CenterID != f.otherCenter.ID || updated.Phone != "0212 000 00 00" {
		t.Errorf("unexpected update %+v", updated)
	}
	if _, err := f.svc.UpdateBranch(ctx, uuid.New(), NewBranchInput(ptr("Yok"), nil, nil, nil, nil, nil)); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("missing branch: got %v", err)
	}
}

func TestSetBranchStatusScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	centerScope := access.CenterScope{CenterID: f.center.ID}

	b, err := f.svc.SetBranchStatus(ctx, centerScope, f.branch.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if b.IsActive {
		t.Error("expected inactive")
	}
	if _, err := f.svc.SetBranchStatus(ctx, centerScope, f.otherBranch.ID, false); apperr.CodeOf(err) != "FORBIDDEN" {
		t.Errorf("out of scope: got %v", err)
	}
	if _, err := f.svc.SetBranchStatus(ctx, centerScope, uuid.New(), false); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("missing: got %v", err)
	}
}

func TestSetPricePercent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := access.CenterScope{CenterID: f.center.ID}

	b, err := f.svc.SetPricePercent(ctx, scope, f.branch.ID, decimal.RequireFromString("12.5"), f.actor)
	if err != nil {
		t.Fatalf("set percent: %v", err)
	}
	if b.PriceAdjustment == nil || !b.PriceAdjustment.Percent.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("percent not stored: %+v", b.PriceAdjustment)
	}

	// Upsert
	b, err = f.svc.SetPricePercent(ctx, scope, f.branch.ID, decimal.NewFromInt(-10), f.actor)
	if err != nil {
		t.Fatal(err)
	}
	if !b.PriceAdjustment.Percent.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("percent not updated: %s", b.PriceAdjustment.Percent)
	}
	var rows int64
	f.db.Model(&models.BranchPriceAdjustment{}).Count(&rows)
	if rows != 1 {
		t.Errorf("expected single adjustment row, got %d", rows)
	}

	var logs []models.AuditLog
	f.db.Where("entity_type = ?", "branch_price_adjustment").Find(&logs)
	if len(logs) != 2 || logs[0].ActorName != "Admin" {
		t.Errorf("expected 2 audit logs, got %+v", logs)
	}

	for _, p := range []string{"-90.01", "200.5"} {
		if _, err := f.svc.SetPricePercent(ctx, scope, f.branch.ID, decimal.RequireFromString(p), f.actor); apperr.CodeOf(err) != "VALIDATION_ERROR" {
			t.Errorf("percent %s: got %v", p, err)
		}
	}
	if _, err := f.svc.SetPricePercent(ctx, scope, f.otherBranch.ID, decimal.NewFromInt(5), f.actor); apperr.CodeOf(err) != "FORBIDDEN" {
		t.Errorf("out of scope: got %v", err)
	}
}

func TestSetProductAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := access.AdminScope{}
	su := testutil.Product(t, f.db, "su_boregi", 700)
	kiymali := testutil.Product(t, f.db, "kiymali_borek", 730)

	list, err := f.svc.SetProductAdjustments(ctx, scope, f.branch.ID, []ExtraInput{
		{ProductID: su.ID, ExtraAmount: decimal.NewFromInt(25)},
		{ProductID: kiymali.ID, ExtraAmount: decimal.NewFromInt(-30)},
	}, f.actor)
	if err != nil {
		t.Fatalf("bulk set: %v", err)
	}
	prices := map[string]decimal.Decimal{}
	for _, p := range list.Products {
		prices[p.Code] = p.AdjustedPrice
	}
	if !prices["su_boregi"].Equal(decimal.NewFromInt(725)) || !prices["kiymali_borek"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("adjusted prices: %v", prices)
	}

	// ~0 fark kaydı siler
	if _, err := f.svc.SetProductAdjustments(ctx, scope, f.branch.ID, []ExtraInput{
		{ProductID: su.ID, ExtraAmount: decimal.RequireFromString("0.001")},
	}, f.actor); err != nil {
		t.Fatal(err)
	}
	var rows []models.BranchProductAdjustment
	f.db.Find(&rows)
	if len(rows) != 1 || rows[0].ProductID != kiymali.ID {
		t.Errorf("expected only kiymali adjustment, got %+v", rows)
	}

	list, err = f.svc.ProductAdjustments(ctx, access.CenterScope{CenterID: f.center.ID}, f.branch.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range list.Products {
		if p.Code == "kiymali_borek" && !p.ExtraAmount.Equal(decimal.NewFromInt(-30)) {
			t.Errorf("kiymali extra: %s", p.ExtraAmount)
		}
	}

	tests := []struct {
		name     string
		items    []ExtraInput
		wantCode string
	}{
		{"empty", nil, "VALIDATION_ERROR"},
		{"duplicate product", []ExtraInput{{ProductID: su.ID, ExtraAmount: decimal.NewFromInt(1)}, {ProductID: su.ID, ExtraAmount: decimal.NewFromInt(2)}}, "VALIDATION_ERROR"},
		{"out of range", []ExtraInput{{ProductID: su.ID, ExtraAmount: decimal.NewFromInt(100001)}}, "VALIDATION_ERROR"},
		{"unknown product", []ExtraInput{{ProductID: uuid.New(), ExtraAmount: decimal.NewFromInt(1)}}, "PRODUCT_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SetProductAdjustments(ctx, scope, f.branch.ID, tt.items, f.actor)
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	if _, err := f.svc.SetProductAdjustments(ctx, access.CenterScope{CenterID: f.center.ID}, f.otherBranch.ID,
		[]ExtraInput{{ProductID: su.ID, ExtraAmount: decimal.NewFromInt(1)}}, f.actor); apperr.CodeOf(err) != "FORBIDDEN" {
		t.Errorf("out of scope: got %v", err)
	}
}

func TestCenters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.User(t, f.db, "merkez01@borek.local", "12345678", models.RoleCenter, nil, f.center)

	c, err := f.svc.CreateCenter(ctx, NewCenterInput(ptr("Borekci Merkez 03"), ptr("Ayşe"), nil, nil, ptr("İstanbul")))
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsActive || c.Manager != "Ayşe" {
		t.Errorf("unexpected center %+v", c)
	}

	centers, err := f.svc.ListCenters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(centers) != 3 {
		t.Fatalf("expected 3 centers, got %d", len(centers))
	}
	for _, ce := range centers {
		if ce.ID == f.center.ID && (ce.UserCount != 1 || ce.BranchCount != 1) {
			t.Errorf("counts: users=%d branches=%d", ce.UserCount, ce.BranchCount)
		}
	}

	updated, err := f.svc.UpdateCenter(ctx, c.ID, NewCenterInput(ptr("Borekci Merkez 3"), nil, nil, nil, nil))
	if err != nil || updated.Name != "Borekci Merkez 3" {
		t.Fatalf("update: %v %+v", err, updated)
	}
	off, err := f.svc.SetCenterStatus(ctx, c.ID, false)
	if err != nil || off.IsActive {
		t.Fatalf("status: %v %+v", err, off)
	}
	if _, err := f.svc.SetCenterStatus(ctx, uuid.New(), true); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("missing center: got %v", err)
	}
	if _, err := f.svc.CreateCenter(ctx, NewCenterInput(ptr("X"), nil, nil, nil, nil)); apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("short name: got %v", err)
	}
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.CreateUser(ctx, CreateUserInput{
		Email:    " Sube01@Borek.local ",
		Phone:    "0555 111 22 33",
		Password: "123456",
		Role:     models.RoleBranch,
		BranchID: &f.branch.ID,
		CenterID: &f.center.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "sube01@borek.local" || u.Phone == nil || *u.Phone != "905551112233" {
		t.Errorf("not normalized: %+v", u)
	}
	if u.CenterID != nil || u.BranchID == nil || u.Branch == nil || !u.IsActive {
		t.Errorf("relations: %+v", u)
	}
	if !auth.CheckPassword(u.PasswordHash, "123456") {
		t.Error("password not hashed correctly")
	}

	tests := []struct {
		name     string
		in       CreateUserInput
		wantCode string
	}{
		{"duplicate email", CreateUserInput{Email: "sube01@borek.local", Password: "123456", Role: models.RoleAdmin}, "EMAIL_IN_USE"},
		{"duplicate phone", CreateUserInput{Email: "x@borek.local", Phone: "5551112233", Password: "123456", Role: models.RoleAdmin}, "PHONE_IN_USE"},
		{"branch user without branch", CreateUserInput{Email: "y@borek.local", Password: "123456", Role: models.RoleBranch}, "VALIDATION_ERROR"},
		{"center user without center", CreateUserInput{Email: "z@borek.local", Password: "123456", Role: models.RoleCenter}, "VALIDATION_ERROR"},
		{"unknown role", CreateUserInput{Email: "r@borek.local", Password: "123456", Role: "patron"}, "VALIDATION_ERROR"},
		{"short password", CreateUserInput{Email: "p@borek.local", Password: "12345", Role: models.RoleAdmin}, "VALIDATION_ERROR"},
		{"bad email", CreateUserInput{Email: "borek", Password: "123456", Role: models.RoleAdmin}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateUser(ctx, tt.in)
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	// Rol değişimi: şube ilişkisi temizlenir, merkez zorunlu olur
	if _, err := f.svc.UpdateUser(ctx, u.ID, UpdateUserInput{Role: ptr(models.RoleCenter)}); apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("center without center id: got %v", err)
	}
	moved, err := f.svc.UpdateUser(ctx, u.ID, UpdateUserInput{Role: ptr(models.RoleCenter), CenterID: &f.center.ID, Phone: ptr("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if moved.Role != models.RoleCenter || moved.BranchID != nil || moved.CenterID == nil || moved.Phone != nil {
		t.Errorf("unexpected update %+v", moved)
	}

	if _, err := f.svc.SetUserStatus(ctx, u.ID, u.ID, false); apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("self deactivate: got %v", err)
	}
	off, err := f.svc.SetUserStatus(ctx, f.actor.ID, u.ID, false)
	if err != nil || off.IsActive {
		t.Fatalf("deactivate: %v %+v", err, off)
	}

	plain, err := f.svc.ResetPassword(ctx, u.ID, "")
	if err != nil || plain != DefaultResetPassword {
		t.Fatalf("reset: %q %v", plain, err)
	}
	var stored models.User
	f.db.First(&stored, "id = ?", u.ID)
	if !auth.CheckPassword(stored.PasswordHash, DefaultResetPassword) {
		t.Error("reset password not stored")
	}
	if _, err := f.svc.ResetPassword(ctx, uuid.New(), ""); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("missing user: got %v", err)
	}

	users, err := f.svc.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Errorf("list: %v %d", err, len(users))
	}
}

func TestPasswordPolicyFromSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := settings.NewService(f.db)
	if _, _, err := st.Update(ctx, settings.UpdateInput{MinPasswordLength: ptr(10)}, settings.Actor{ID: f.actor.ID, Name: "Admin"}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.CreateUser(ctx, CreateUserInput{Email: "a@borek.local", Password: "12345678", Role: models.RoleAdmin})
	if apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("expected policy violation, got %v", err)
	}
	if _, err := f.svc.CreateUser(ctx, CreateUserInput{Email: "a@borek.local", Password: "1234567890", Role: models.RoleAdmin}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBranchHandlers(t *testing.T) {
	f := newFixture(t)
	id := &auth.Identity{UserID: f.actor.ID, Name: "Merkez 01", Role: models.RoleCenter, CenterID: &f.center.ID}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.FiberErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxIdentityKey, id)
		return c.Next()
	})
	app.Get("/branches", ListBranchesHandler(f.svc))
	app.Put("/branches/:id/price-adjustment", SetPriceAdjustmentHandler(f.svc))
	app.Put("/branches/:id/product-adjustments/:productId", SetProductAdjustmentHandler(f.svc))

	do := func(method, path, body string) (int, []byte) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var buf strings.Builder
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode, []byte(buf.String())
	}

	code, body := do("GET", "/branches", "")
	if code != 200 {
		t.Fatalf("list: %d %s", code, body)
	}
	var list []BranchResponse
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != f.branch.ID {
		t.Errorf("center must only see own branches: %+v", list)
	}

	code, body = do("PUT", "/branches/"+f.branch.ID.String()+"/price-adjustment", `{"percent":"7.5"}`)
	if code != 200 {
		t.Fatalf("percent: %d %s", code, body)
	}
	var b BranchResponse
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatal(err)
	}
	if b.PriceAdjustmentPercent.String() != "7.5" {
		t.Errorf("percent: got %s", b.PriceAdjustmentPercent)
	}

	if code, _ := do("PUT", "/branches/"+f.otherBranch.ID.String()+"/price-adjustment", `{"percent":5}`); code != 403 {
		t.Errorf("out of scope: got %d", code)
	}
	if code, _ := do("PUT", "/branches/"+f.branch.ID.String()+"/price-adjustment", `{}`); code != 400 {
		t.Errorf("missing percent: got %d", code)
	}
	if code, _ := do("PUT", "/branches/bozuk/price-adjustment", `{"percent":5}`); code != 400 {
		t.Errorf("bad id: got %d", code)
	}

	p := testutil.Product(t, f.db, "su_boregi", 700)
	code, body = do("PUT", "/branches/"+f.branch.ID.String()+"/product-adjustments/"+p.ID.String(), `{"extra_amount":"-50"}`)
	if code != 200 {
		t.Fatalf("product adjustment: %d %s", code, body)
	}
	// 700 * 1.075 - 50 = 702.5, tam sayıya yuvarlanır
	if !strings.Contains(string(body), `"703"`) {
		t.Errorf("expected adjusted price 703 in %s", body)
	}
}
