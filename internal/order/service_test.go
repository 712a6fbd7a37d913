package order

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"
	"siparis-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 12, 9, 10, 30, 0, 0, time.UTC)

type fixedDefaults string

func (d fixedDefaults) DefaultDeliveryTime(context.Context) string { return string(d) }

type fixture struct {
	db          *gorm.DB
	svc         *Service
	center      *models.Center
	otherCenter *models.Center
	branch      *models.Branch
	otherBranch *models.Branch
	suBoregi    *models.Product
	kiymali     *models.Product
	actor       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{db: db, actor: uuid.New()}
	f.center = testutil.Center(t, db, "Borekci Merkez 01")
	f.otherCenter = testutil.Center(t, db, "Borekci Merkez 02")
	f.branch = testutil.Branch(t, db, "Borekci Sube 01", f.center)
	f.otherBranch = testutil.Branch(t, db, "Borekci Sube 02", f.otherCenter)
	f.suBoregi = testutil.Product(t, db, "su_boregi", 700)
	f.kiymali = testutil.Product(t, db, "kiymali_borek", 730)

	f.svc = NewService(db, time.UTC, fixedDefaults("06:30"))
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) branchScope() access.Scope { return access.BranchScope{BranchID: f.branch.ID} }

func (f *fixture) create(t *testing.T, items ...ItemInput) *models.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), f.branchScope(), CreateInput{
		DeliveryDate: "2025-12-10",
		Items:        items,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return o
}

func itemFor(t *testing.T, o *models.Order, productID uuid.UUID) models.OrderItem {
	t.Helper()
	for _, it := range o.Items {
		if it.ProductID == productID {
			return it
		}
	}
	t.Fatalf("item for product %s not found", productID)
	return models.OrderItem{}
}

func TestCreateMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	o := f.create(t,
		ItemInput{ProductCode: "su_boregi", QtyTray: 2},
		ItemInput{ProductCode: "su_boregi", QtyTray: 3},
	)

	if len(o.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(o.Items))
	}
	if o.Items[0].QtyTray != 5 {
		t.Errorf("expected qty 5, got %d", o.Items[0].QtyTray)
	}
	if o.TotalTray != 5 {
		t.Errorf("expected total tray 5, got %d", o.TotalTray)
	}
	if !o.TotalAmount.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("expected total 3500, got %s", o.TotalAmount)
	}
	if o.Status != models.OrderStatusPending || o.DeliveryStatus != models.DeliveryStatusAwaiting {
		t.Errorf("unexpected initial state %s/%s", o.Status, o.DeliveryStatus)
	}
	if o.Branch == nil || o.Branch.Name != "Borekci Sube 01" {
		t.Errorf("branch not hydrated: %+v", o.Branch)
	}
	if o.Items[0].Product == nil || o.Items[0].Product.Code != "su_boregi" {
		t.Errorf("product not hydrated: %+v", o.Items[0].Product)
	}
}

func TestCreateKeepsSubmissionOrder(t *testing.T) {
	f := newFixture(t)
	extra := testutil.Product(t, f.db, "peynirli_borek", 650)

	o := f.create(t,
		ItemInput{ProductCode: "kiymali_borek", QtyTray: 1},
		ItemInput{ProductCode: "su_boregi", QtyTray: 1},
		ItemInput{ProductCode: "peynirli_borek", QtyTray: 1},
		ItemInput{ProductCode: "kiymali_borek", QtyTray: 2},
	)

	want := []uuid.UUID{f.kiymali.ID, f.suBoregi.ID, extra.ID}
	check := func(label string, items []models.OrderItem) {
		t.Helper()
		if len(items) != len(want) {
			t.Fatalf("%s: expected %d lines, got %d", label, len(want), len(items))
		}
		for i, it := range items {
			if it.ProductID != want[i] || it.Position != i {
				t.Errorf("%s line %d: got product %s position %d", label, i, it.ProductID, it.Position)
			}
		}
	}

	check("create", o.Items)
	list, err := f.svc.List(context.Background(), f.branchScope(), ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	check("list", list[0].Items)
}

func TestCreateAppliesBranchPricing(t *testing.T) {
	f := newFixture(t)

	if err := f.db.Create(&models.BranchPriceAdjustment{BranchID: f.branch.ID, Percent: decimal.NewFromInt(10)}).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.db.Omit("Branch", "Product").Create(&models.BranchProductAdjustment{
		BranchID: f.branch.ID, ProductID: f.kiymali.ID, ExtraAmount: decimal.NewFromInt(-3),
	}).Error; err != nil {
		t.Fatal(err)
	}

	o := f.create(t,
		ItemInput{ProductCode: "su_boregi", QtyTray: 2},
		ItemInput{ProductCode: "kiymali_borek", QtyTray: 1},
	)

	// 700 * 1.10 = 770; 730 * 1.10 - 3 = 800
	if got := itemFor(t, o, f.suBoregi.ID).UnitPrice; !got.Equal(decimal.NewFromInt(770)) {
		t.Errorf("su_boregi unit price: got %s, want 770", got)
	}
	if got := itemFor(t, o, f.kiymali.ID).UnitPrice; !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("kiymali unit price: got %s, want 800", got)
	}
	if !o.TotalAmount.Equal(decimal.NewFromInt(2*770 + 800)) {
		t.Errorf("total amount: got %s", o.TotalAmount)
	}

	// Fiyat değişikliği mevcut siparişi etkilemez
	if err := f.db.Model(&models.Product{}).Where("id = ?", f.suBoregi.ID).
		Update("base_price", decimal.NewFromInt(2000)).Error; err != nil {
		t.Fatal(err)
	}
	reloaded, err := f.svc.Get(context.Background(), access.AdminScope{}, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := itemFor(t, reloaded, f.suBoregi.ID).UnitPrice; !got.Equal(decimal.NewFromInt(770)) {
		t.Errorf("unit price snapshot changed: %s", got)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	passive := testutil.Product(t, f.db, "pasif_urun", 500)
	testutil.Deactivate(t, f.db, passive)

	inactiveBranch := testutil.Branch(t, f.db, "Kapali Sube", f.center)
	testutil.Deactivate(t, f.db, inactiveBranch)

	tests := []struct {
		name     string
		scope    access.Scope
		in       CreateInput
		wantCode string
	}{
		{
			name:     "no items",
			scope:    f.branchScope(),
			in:       CreateInput{DeliveryDate: "2025-12-10"},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "zero qty",
			scope:    f.branchScope(),
			in:       CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{{ProductCode: "su_boregi", QtyTray: 0}}},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:  "qty overflow on merged lines",
			scope: f.branchScope(),
			in: CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{
				{ProductCode: "su_boregi", QtyTray: math.MaxInt/2 + 1},
				{ProductCode: "su_boregi", QtyTray: math.MaxInt/2 + 1},
			}},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:  "total tray over limit",
			scope: f.branchScope(),
			in: CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{
				{ProductCode: "su_boregi", QtyTray: math.MaxInt32},
				{ProductCode: "kiymali_borek", QtyTray: 1},
			}},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "bad date",
			scope:    f.branchScope(),
			in:       CreateInput{DeliveryDate: "10.12.2025", Items: []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}}},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "bad time",
			scope:    f.branchScope(),
			in:       CreateInput{DeliveryDate: "2025-12-10", DeliveryTime: "25:99", Items: []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}}},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "unknown product",
			scope:    f.branchScope(),
			in:       CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{{ProductCode: "yok_boyle", QtyTray: 1}}},
			wantCode: "PRODUCT_NOT_FOUND",
		},
		{
			name:     "inactive product",
			scope:    f.branchScope(),
			in:       CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{{ProductCode: "pasif_urun", QtyTray: 1}}},
			wantCode: "PRODUCT_INACTIVE",
		},
		{
			name:  "unknown carryover product",
			scope: f.branchScope(),
			in: CreateInput{
				DeliveryDate: "2025-12-10",
				Items:        []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}},
				Carryovers:   []CarryoverInput{{ProductCode: "yok_boyle", QtyKg: decimal.NewFromInt(2)}},
			},
			wantCode: "PRODUCT_NOT_FOUND",
		},
		{
			name:     "inactive branch",
			scope:    access.BranchScope{BranchID: inactiveBranch.ID},
			in:       CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}}},
			wantCode: "BRANCH_INACTIVE",
		},
		{
			name:     "admin without branch",
			scope:    access.AdminScope{},
			in:       CreateInput{DeliveryDate: "2025-12-10", Items: []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}}},
			wantCode: "BRANCH_REQUIRED",
		},
		{
			name:     "branch user ordering for another branch",
			scope:    f.branchScope(),
			in:       CreateInput{BranchID: &f.otherBranch.ID, DeliveryDate: "2025-12-10", Items: []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}}},
			wantCode: "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.scope, tt.in)
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected carts must not persist orders, found %d", count)
	}
}

func TestCreateDefaultsAndCarryovers(t *testing.T) {
	f := newFixture(t)
	passive := testutil.Product(t, f.db, "dunku_urun", 500)
	testutil.Deactivate(t, f.db, passive)

	o, err := f.svc.Create(context.Background(), access.AdminScope{}, CreateInput{
		BranchID:     &f.branch.ID,
		DeliveryDate: "2025-12-10",
		Note:         "  kapıya bırakın  ",
		Items:        []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}},
		Carryovers: []CarryoverInput{
			{ProductCode: "su_boregi", QtyKg: decimal.RequireFromString("1.5")},
			{ProductCode: "dunku_urun", QtyKg: decimal.RequireFromString("0.25")},
			{ProductCode: "su_boregi", QtyKg: decimal.RequireFromString("0.5")},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if o.DeliveryTime != "06:30" {
		t.Errorf("expected default delivery time 06:30, got %s", o.DeliveryTime)
	}
	if o.Note != "kapıya bırakın" {
		t.Errorf("note not trimmed: %q", o.Note)
	}
	if o.DeliveryDate.Format("2006-01-02") != "2025-12-10" {
		t.Errorf("delivery date: %s", o.DeliveryDate)
	}
	if len(o.Carryovers) != 2 {
		t.Fatalf("expected 2 carryovers, got %d", len(o.Carryovers))
	}
	for _, co := range o.Carryovers {
		switch co.ProductID {
		case f.suBoregi.ID:
			if !co.QtyKg.Equal(decimal.NewFromInt(2)) {
				t.Errorf("su_boregi carryover: got %s, want 2", co.QtyKg)
			}
		case passive.ID:
			if !co.QtyKg.Equal(decimal.RequireFromString("0.25")) {
				t.Errorf("dunku_urun carryover: got %s", co.QtyKg)
			}
		default:
			t.Errorf("unexpected carryover product %s", co.ProductID)
		}
	}
	if o.TotalTray != 1 {
		t.Errorf("carryovers must not affect totals, total tray %d", o.TotalTray)
	}
}

func TestOrderNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	f.svc.numbers = NewNumberGenerator(time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		o := f.create(t, ItemInput{ProductCode: "su_boregi", QtyTray: 1})
		if seen[o.OrderNo] {
			t.Fatalf("duplicate order number %s", o.OrderNo)
		}
		seen[o.OrderNo] = true
	}
}

func TestOrderNumberRetriesAndExhausts(t *testing.T) {
	f := newFixture(t)

	seq := []int{7, 7, 8}
	calls := 0
	f.svc.numbers = &NumberGenerator{
		Now:      func() time.Time { return fixedNow },
		Location: time.UTC,
		Rand: func() int {
			v := seq[calls%len(seq)]
			calls++
			return v
		},
	}

	first := f.create(t, ItemInput{ProductCode: "su_boregi", QtyTray: 1})
	if first.OrderNo != "SP-20251209-103000-007" {
		t.Fatalf("unexpected order number %s", first.OrderNo)
	}
	second := f.create(t, ItemInput{ProductCode: "su_boregi", QtyTray: 1})
	if second.OrderNo != "SP-20251209-103000-008" {
		t.Fatalf("expected retry to produce -008, got %s", second.OrderNo)
	}
	if calls != 3 {
		t.Errorf("expected 3 generator calls, got %d", calls)
	}

	calls = 0
	f.svc.numbers.Rand = func() int { calls++; return 7 }
	_, err := f.svc.Create(context.Background(), f.branchScope(), CreateInput{
		DeliveryDate: "2025-12-10",
		Items:        []ItemInput{{ProductCode: "su_boregi", QtyTray: 1}},
	})
	if !errors.Is(err, ErrOrderNumberExhausted) {
		t.Fatalf("expected ORDER_NUMBER_EXHAUSTED, got %v", err)
	}
	if calls != maxOrderNumberAttempts {
		t.Errorf("expected %d attempts, got %d", maxOrderNumberAttempts, calls)
	}
}

func TestNumberGeneratorFormat(t *testing.T) {
	loc := time.FixedZone("TRT", 3*60*60)
	g := &NumberGenerator{
		Now:      func() time.Time { return time.Date(2025, 1, 2, 21, 4, 5, 0, time.UTC) },
		Rand:     func() int { return 42 },
		Location: loc,
	}
	if got := g.Next(); got != "SP-20250103-000405-042" {
		t.Errorf("got %s", got)
	}
}
