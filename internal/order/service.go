// Package order şube siparişlerinin oluşturulması, onay/red akışı, teslimat ve raporlarını içerir.
package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"
	"siparis-backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const fallbackDeliveryTime = "07:00"

// Bir siparişteki toplam tepsi üst sınırı (satır bazında da geçerli)
const maxOrderTray = math.MaxInt32

// DeliveryDefaults: Teslim saati boş gelirse kullanılacak değer (sistem ayarlarından)
type DeliveryDefaults interface {
	DefaultDeliveryTime(ctx context.Context) string
}

type Service struct {
	db       *gorm.DB
	loc      *time.Location
	numbers  *NumberGenerator
	defaults DeliveryDefaults
	now      func() time.Time
}

func NewService(db *gorm.DB, loc *time.Location, defaults DeliveryDefaults) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:       db,
		loc:      loc,
		numbers:  NewNumberGenerator(loc),
		defaults: defaults,
		now:      time.Now,
	}
}

type ItemInput struct {
	ProductCode string
	QtyTray     int
}

type CarryoverInput struct {
	ProductCode string
	QtyKg       decimal.Decimal
}

type CreateInput struct {
	BranchID     *uuid.UUID // boşsa kullanıcının şubesi
	DeliveryDate string     // "2025-12-09"
	DeliveryTime string     // "07:00"
	Note         string
	Items        []ItemInput
	Carryovers   []CarryoverInput
}

// line: Ürün koduna göre birleştirilmiş kalem
type line struct {
	code string
	qty  int
}

var errOrderNoTaken = errors.New("sipariş numarası kullanımda")

// Create: Sepeti doğrular, şube fiyatlarını hesaplar ve siparişi kalemleriyle birlikte tek transaction'da yazar.
func (s *Service) Create(ctx context.Context, scope access.Scope, in CreateInput) (*models.Order, error) {
	branchID, err := targetBranch(scope, in.BranchID)
	if err != nil {
		return nil, err
	}

	deliveryDate, err := parseDate(in.DeliveryDate)
	if err != nil {
		return nil, err
	}
	deliveryTime, err := s.resolveDeliveryTime(ctx, in.DeliveryTime)
	if err != nil {
		return nil, err
	}
	if len([]rune(in.Note)) > 1000 {
		return nil, apperr.Validation("Not en fazla 1000 karakter olabilir")
	}

	lines, err := aggregateItems(in.Items)
	if err != nil {
		return nil, err
	}
	carryovers, err := aggregateCarryovers(in.Carryovers)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var branch models.Branch
	if err := db.First(&branch, "id = ?", branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, fmt.Errorf("şube okunamadı: %w", err)
	}
	if !access.CanSeeBranch(scope, &branch) {
		return nil, ErrOrderForbidden
	}
	if !branch.IsActive {
		return nil, ErrBranchInactive
	}

	// Kalem ve devir kodları tek sorguda
	codes := make([]string, 0, len(lines)+len(carryovers))
	seen := map[string]bool{}
	for _, l := range lines {
		codes = append(codes, l.code)
		seen[l.code] = true
	}
	for _, c := range carryovers {
		if !seen[c.ProductCode] {
			codes = append(codes, c.ProductCode)
			seen[c.ProductCode] = true
		}
	}

	var products []models.Product
	if err := db.Where("code IN ?", codes).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("ürünler okunamadı: %w", err)
	}
	byCode := make(map[string]*models.Product, len(products))
	for i := range products {
		byCode[products[i].Code] = &products[i]
	}
	for _, code := range codes {
		if byCode[code] == nil {
			return nil, ErrProductNotFound.Withf("Ürün bulunamadı: %s", code)
		}
	}
	for _, l := range lines {
		if !byCode[l.code].IsActive {
			return nil, ErrProductInactive.Withf("Ürün pasif: %s", l.code)
		}
	}

	priceCtx, err := pricing.LoadBranchContext(db, branch.ID)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		BranchID:       branch.ID,
		Status:         models.OrderStatusPending,
		DeliveryStatus: models.DeliveryStatusAwaiting,
		DeliveryDate:   deliveryDate,
		DeliveryTime:   deliveryTime,
		Note:           strings.TrimSpace(in.Note),
		TotalAmount:    decimal.Zero,
	}

	items := make([]models.OrderItem, 0, len(lines))
	for i, l := range lines {
		p := byCode[l.code]
		unitPrice := priceCtx.UnitPrice(p)
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			QtyTray:   l.qty,
			UnitPrice: unitPrice,
			Position:  i,
		})
		order.TotalTray += l.qty
		order.TotalAmount = order.TotalAmount.Add(unitPrice.Mul(decimal.NewFromInt(int64(l.qty))))
	}

	rows := make([]models.OrderCarryover, 0, len(carryovers))
	for _, c := range carryovers {
		rows = append(rows, models.OrderCarryover{
			ProductID: byCode[c.ProductCode].ID,
			QtyKg:     c.QtyKg,
		})
	}

	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		order.ID = uuid.Nil
		order.OrderNo = s.numbers.Next()

		err := db.Transaction(func(tx *gorm.DB) error {
			return insertOrder(tx, &order, items, rows)
		})
		if err == nil {
			return s.load(db, order.ID)
		}
		if errors.Is(err, errOrderNoTaken) {
			continue
		}
		return nil, err
	}

	return nil, ErrOrderNumberExhausted
}

func insertOrder(tx *gorm.DB, order *models.Order, items []models.OrderItem, carryovers []models.OrderCarryover) error {
	var taken int64
	if err := tx.Model(&models.Order{}).Where("order_no = ?", order.OrderNo).Count(&taken).Error; err != nil {
		return fmt.Errorf("sipariş numarası kontrol edilemedi: %w", err)
	}
	if taken > 0 {
		return errOrderNoTaken
	}

	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errOrderNoTaken
		}
		return fmt.Errorf("sipariş oluşturulamadı: %w", err)
	}

	for i := range items {
		items[i].ID = uuid.Nil
		items[i].OrderID = order.ID
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		return fmt.Errorf("sipariş kalemleri oluşturulamadı: %w", err)
	}

	if len(carryovers) > 0 {
		for i := range carryovers {
			carryovers[i].ID = uuid.Nil
			carryovers[i].OrderID = order.ID
		}
		if err := tx.Omit(clause.Associations).Create(&carryovers).Error; err != nil {
			return fmt.Errorf("devir kayıtları oluşturulamadı: %w", err)
		}
	}
	return nil
}

// targetBranch: Şube kullanıcısı sadece kendi şubesine sipariş verebilir
func targetBranch(scope access.Scope, requested *uuid.UUID) (uuid.UUID, error) {
	if own, ok := access.BranchOf(scope); ok {
		if requested != nil && *requested != own {
			return uuid.Nil, ErrOrderForbidden
		}
		return own, nil
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, ErrBranchRequired
	}
	return *requested, nil
}

func aggregateItems(in []ItemInput) ([]line, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("En az bir ürün eklenmelidir")
	}

	idx := map[string]int{}
	var lines []line
	total := 0
	for _, it := range in {
		code := strings.TrimSpace(it.ProductCode)
		if len(code) < 2 || len(code) > 64 {
			return nil, apperr.Validation("Ürün kodu 2-64 karakter olmalı")
		}
		if it.QtyTray <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("Tepsi adedi pozitif olmalı: %s", code))
		}
		// total <= maxOrderTray olduğu sürece toplama taşmaz
		if it.QtyTray > maxOrderTray-total {
			return nil, apperr.Validation(fmt.Sprintf("Toplam tepsi adedi en fazla %d olabilir", maxOrderTray))
		}
		total += it.QtyTray
		if i, ok := idx[code]; ok {
			lines[i].qty += it.QtyTray
			continue
		}
		idx[code] = len(lines)
		lines = append(lines, line{code: code, qty: it.QtyTray})
	}
	return lines, nil
}

func aggregateCarryovers(in []CarryoverInput) ([]CarryoverInput, error) {
	idx := map[string]int{}
	var out []CarryoverInput
	for _, c := range in {
		code := strings.TrimSpace(c.ProductCode)
		if code == "" {
			return nil, apperr.Validation("Devir için ürün kodu zorunlu")
		}
		if !c.QtyKg.IsPositive() {
			return nil, apperr.Validation(fmt.Sprintf("Devir miktarı pozitif olmalı: %s", code))
		}
		if i, ok := idx[code]; ok {
			out[i].QtyKg = out[i].QtyKg.Add(c.QtyKg)
			continue
		}
		idx[code] = len(out)
		out = append(out, CarryoverInput{ProductCode: code, QtyKg: c.QtyKg})
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation("Tarih formatı 'YYYY-MM-DD' olmalı")
	}
	return d, nil
}

func (s *Service) resolveDeliveryTime(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallbackDeliveryTime
		if s.defaults != nil {
			if v := s.defaults.DefaultDeliveryTime(ctx); v != "" {
				raw = v
			}
		}
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return "", apperr.Validation("Teslim saati 'SS:DD' formatında olmalı")
	}
	return t.Format("15:04"), nil
}

// itemOrder: Kalemler gönderildikleri sırayla döner
func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.position, order_items.id")
}

// load: Sipariş + şube + kalem ürünleri + devirler
func (s *Service) load(db *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := db.
		Preload("Branch").
		Preload("Items", itemOrder).
		Preload("Items.Product").
		Preload("Carryovers.Product").
		First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("sipariş okunamadı: %w", err)
	}
	return &o, nil
}
