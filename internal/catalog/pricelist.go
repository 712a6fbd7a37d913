package catalog

import (
	"context"
	"errors"

	"siparis-backend/internal/access"
	"siparis-backend/internal/models"
	"siparis-backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BranchInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// PricedProduct: Ürünün şube için hesaplanmış güncel fiyatı
type PricedProduct struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	ImageRef      string          `json:"image_ref"`
	BasePrice     decimal.Decimal `json:"base_price"`
	ExtraAmount   decimal.Decimal `json:"extra_amount"`
	AdjustedPrice decimal.Decimal `json:"adjusted_price"`
	IsActive      bool            `json:"is_active"`
}

type PriceList struct {
	Branch   BranchInfo      `json:"branch"`
	Percent  decimal.Decimal `json:"percent"`
	Products []PricedProduct `json:"products"`
}

// PriceListFor: Şube kullanıcısı kendi şubesini görür; merkez ve admin branchID vermek zorundadır.
func (s *Service) PriceListFor(ctx context.Context, scope access.Scope, branchID *uuid.UUID) (*PriceList, error) {
	target, err := resolveBranch(scope, branchID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var branch models.Branch
	if err := db.First(&branch, "id = ?", target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	if !access.CanSeeBranch(scope, &branch) {
		return nil, access.ErrForbidden
	}

	return BuildPriceList(db, &branch)
}

func resolveBranch(scope access.Scope, branchID *uuid.UUID) (uuid.UUID, error) {
	if own, ok := access.BranchOf(scope); ok {
		if branchID != nil && *branchID != own {
			return uuid.Nil, access.ErrForbidden
		}
		return own, nil
	}
	if branchID == nil {
		return uuid.Nil, ErrBranchRequired
	}
	return *branchID, nil
}

// BuildPriceList: Scope kontrolü çağırana aittir
func BuildPriceList(db *gorm.DB, branch *models.Branch) (*PriceList, error) {
	pc, err := pricing.LoadBranchContext(db, branch.ID)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := db.Order("created_at ASC").Order("code ASC").Find(&products).Error; err != nil {
		return nil, err
	}

	list := &PriceList{
		Branch:   BranchInfo{ID: branch.ID, Name: branch.Name, IsActive: branch.IsActive},
		Percent:  pc.Percent,
		Products: make([]PricedProduct, 0, len(products)),
	}
	for i := range products {
		p := &products[i]
		list.Products = append(list.Products, PricedProduct{
			ID:            p.ID,
			Code:          p.Code,
			Name:          p.Name,
			ImageRef:      p.ImageRef,
			BasePrice:     p.BasePrice,
			ExtraAmount:   pc.ExtraFor(p.ID),
			AdjustedPrice: pc.UnitPrice(p),
			IsActive:      p.IsActive,
		})
	}
	return list, nil
}
