package catalog

import (
	"context"
	"testing"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"
	"siparis-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestProductCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Su Böreği", "su_boregi"},
		{"Kıymalı Börek", "kiymali_borek"},
		{"  Ispanaklı / Peynirli  ", "ispanakli_peynirli"},
		{"İÇLİ KÖFTE", "icli_kofte"},
		{"Kol Böreği (Tepsi) 2", "kol_boregi_tepsi_2"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := ProductCode(tt.in); got != tt.want {
			t.Errorf("ProductCode(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateProduct(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Name: " Kıymalı Börek ", BasePrice: decimal.NewFromInt(730)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Code != "kiymali_borek" || p.Name != "Kıymalı Börek" || !p.IsActive {
		t.Errorf("unexpected product %+v", p)
	}

	_, err = svc.Create(ctx, CreateInput{Name: "Kiymali Borek", BasePrice: decimal.NewFromInt(700)})
	if apperr.CodeOf(err) != "PRODUCT_EXISTS" {
		t.Errorf("duplicate code: got %v", err)
	}

	custom, err := svc.Create(ctx, CreateInput{Name: "Karışık Börek", Code: "KRS 01", BasePrice: decimal.NewFromInt(790)})
	if err != nil {
		t.Fatal(err)
	}
	if custom.Code != "krs_01" {
		t.Errorf("explicit code: got %s", custom.Code)
	}

	invalid := []CreateInput{
		{Name: "X", BasePrice: decimal.NewFromInt(10)},
		{Name: "Patatesli", BasePrice: decimal.Zero},
		{Name: "Patatesli", BasePrice: decimal.NewFromInt(-5)},
		{Name: "???", BasePrice: decimal.NewFromInt(10)},
	}
	for _, in := range invalid {
		if _, err := svc.Create(ctx, in); apperr.CodeOf(err) != "VALIDATION_ERROR" {
			t.Errorf("%+v: expected validation error, got %v", in, err)
		}
	}
}

func TestUpdateProductKeepsCode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()
	p := testutil.Product(t, db, "su_boregi", 700)

	name := "Su Böreği Özel"
	price := decimal.RequireFromString("725.50")
	before, after, err := svc.Update(ctx, p.ID, UpdateInput{Name: &name, BasePrice: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !before.BasePrice.Equal(decimal.NewFromInt(700)) {
		t.Errorf("before price: %s", before.BasePrice)
	}
	if after.Code != "su_boregi" || after.Name != name || !after.BasePrice.Equal(price) {
		t.Errorf("unexpected after %+v", after)
	}

	ref := "products/su.jpg"
	if _, after, err = svc.Update(ctx, p.ID, UpdateInput{ImageRef: &ref}); err != nil || after.ImageRef != ref {
		t.Fatalf("image ref: %v %+v", err, after)
	}
	if _, after, err = svc.Update(ctx, p.ID, UpdateInput{ImageRef: &ref, RemoveImage: true}); err != nil || after.ImageRef != "" {
		t.Fatalf("remove image: %v %+v", err, after)
	}

	if _, _, err := svc.Update(ctx, p.ID, UpdateInput{}); apperr.CodeOf(err) != "VALIDATION_ERROR" {
		t.Errorf("empty update: got %v", err)
	}
	if _, _, err := svc.Update(ctx, uuid.New(), UpdateInput{Name: &name}); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("missing product: got %v", err)
	}
}

func TestProductStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()
	a := testutil.Product(t, db, "su_boregi", 700)
	b := testutil.Product(t, db, "peynirli_borek", 650)
	testutil.Product(t, db, "kiymali_borek", 730)

	p, err := svc.SetStatus(ctx, a.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.IsActive {
		t.Error("expected inactive")
	}
	if _, err := svc.SetStatus(ctx, uuid.New(), false); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("missing product: got %v", err)
	}

	active, err := svc.List(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active products, got %d", len(active))
	}

	n, err := svc.SetStatusBulk(ctx, []uuid.UUID{b.ID}, false)
	if err != nil || n != 1 {
		t.Fatalf("bulk by ids: n=%d err=%v", n, err)
	}
	n, err = svc.SetStatusBulk(ctx, nil, true)
	if err != nil || n != 3 {
		t.Fatalf("bulk all: n=%d err=%v", n, err)
	}
	all, _ := svc.List(ctx, true)
	if len(all) != 3 {
		t.Errorf("expected all active, got %d", len(all))
	}
}

func TestDeleteProduct(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()
	center := testutil.Center(t, db, "Borekci Merkez 01")
	branch := testutil.Branch(t, db, "Borekci Sube 01", center)
	used := testutil.Product(t, db, "su_boregi", 700)
	free := testutil.Product(t, db, "patatesli_borek", 610)

	testutil.PendingOrder(t, db, branch, time.Date(2025, 12, 9, 8, 0, 0, 0, time.UTC),
		testutil.ItemSpec{Product: used, QtyTray: 1, UnitPrice: 700})
	if err := db.Omit("Branch", "Product").Create(&models.BranchProductAdjustment{
		BranchID: branch.ID, ProductID: free.ID, ExtraAmount: decimal.NewFromInt(5),
	}).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Delete(ctx, used.ID); apperr.CodeOf(err) != "PRODUCT_IN_USE" {
		t.Errorf("used product: got %v", err)
	}
	if _, err := svc.Delete(ctx, free.ID); err != nil {
		t.Fatalf("delete free product: %v", err)
	}

	var extras int64
	db.Model(&models.BranchProductAdjustment{}).Count(&extras)
	if extras != 0 {
		t.Errorf("adjustments not removed: %d", extras)
	}
	if _, err := svc.Delete(ctx, free.ID); apperr.CodeOf(err) != "NOT_FOUND" {
		t.Errorf("second delete: got %v", err)
	}
}

func TestPriceListFor(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()
	center := testutil.Center(t, db, "Borekci Merkez 01")
	otherCenter := testutil.Center(t, db, "Borekci Merkez 02")
	branch := testutil.Branch(t, db, "Borekci Sube 01", center)
	foreign := testutil.Branch(t, db, "Borekci Sube 02", otherCenter)
	su := testutil.Product(t, db, "su_boregi", 700)
	testutil.Product(t, db, "kiymali_borek", 730)

	if err := db.Create(&models.BranchPriceAdjustment{BranchID: branch.ID, Percent: decimal.NewFromInt(10)}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Omit("Branch", "Product").Create(&models.BranchProductAdjustment{
		BranchID: branch.ID, ProductID: su.ID, ExtraAmount: decimal.NewFromInt(-20),
	}).Error; err != nil {
		t.Fatal(err)
	}

	list, err := svc.PriceListFor(ctx, access.BranchScope{BranchID: branch.ID}, nil)
	if err != nil {
		t.Fatalf("price list: %v", err)
	}
	if list.Branch.Name != "Borekci Sube 01" || !list.Percent.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unexpected header %+v", list)
	}
	prices := map[string]PricedProduct{}
	for _, p := range list.Products {
		prices[p.Code] = p
	}
	// 700 * 1.10 - 20 = 750; 730 * 1.10 = 803
	if got := prices["su_boregi"]; !got.AdjustedPrice.Equal(decimal.NewFromInt(750)) || !got.ExtraAmount.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("su_boregi: %+v", got)
	}
	if got := prices["kiymali_borek"]; !got.AdjustedPrice.Equal(decimal.NewFromInt(803)) || !got.ExtraAmount.IsZero() {
		t.Errorf("kiymali_borek: %+v", got)
	}

	tests := []struct {
		name     string
		scope    access.Scope
		branchID *uuid.UUID
		wantCode string
	}{
		{"branch user asking other branch", access.BranchScope{BranchID: branch.ID}, &foreign.ID, "FORBIDDEN"},
		{"center without branch", access.CenterScope{CenterID: center.ID}, nil, "BRANCH_REQUIRED"},
		{"center outside scope", access.CenterScope{CenterID: center.ID}, &foreign.ID, "FORBIDDEN"},
		{"center own branch", access.CenterScope{CenterID: center.ID}, &branch.ID, ""},
		{"admin any branch", access.AdminScope{}, &foreign.ID, ""},
		{"admin unknown branch", access.AdminScope{}, ptr(uuid.New()), "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PriceListFor(ctx, tt.scope, tt.branchID)
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Errorf("expected %q, got %q (%v)", tt.wantCode, code, err)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
