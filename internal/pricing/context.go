package pricing

import (
	"errors"
	"fmt"

	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BranchContext: Bir şubenin fiyatlandırma bilgisi (yüzde + ürün bazlı farklar)
type BranchContext struct {
	BranchID uuid.UUID
	Percent  decimal.Decimal
	Extras   map[uuid.UUID]decimal.Decimal // ürün ID -> sabit fark
}

// ExtraFor: Kayıt yoksa 0
func (c *BranchContext) ExtraFor(productID uuid.UUID) decimal.Decimal {
	if v, ok := c.Extras[productID]; ok {
		return v
	}
	return decimal.Zero
}

// UnitPrice: Ürünün bu şube için güncel tepsi fiyatı
func (c *BranchContext) UnitPrice(p *models.Product) decimal.Decimal {
	return AdjustedPrice(p.BasePrice, c.Percent, c.ExtraFor(p.ID))
}

// LoadBranchContext: Yüzde kaydı yoksa %0, fark kaydı olmayan ürünler 0 kabul edilir
func LoadBranchContext(db *gorm.DB, branchID uuid.UUID) (*BranchContext, error) {
	ctx := &BranchContext{
		BranchID: branchID,
		Percent:  decimal.Zero,
		Extras:   map[uuid.UUID]decimal.Decimal{},
	}

	var adj models.BranchPriceAdjustment
	err := db.Where("branch_id = ?", branchID).First(&adj).Error
	switch {
	case err == nil:
		ctx.Percent = adj.Percent
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("şube yüzde farkı okunamadı: %w", err)
	}

	var extras []models.BranchProductAdjustment
	if err := db.Where("branch_id = ?", branchID).Find(&extras).Error; err != nil {
		return nil, fmt.Errorf("ürün farkları okunamadı: %w", err)
	}
	for _, e := range extras {
		ctx.Extras[e.ProductID] = e.ExtraAmount
	}

	return ctx, nil
}
