package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BranchPriceAdjustment: Şubenin tüm liste fiyatlarına uygulanan yüzde farkı.
// Şube başına tek kayıt, ilk ayarlamada oluşturulur (yoksa %0 kabul edilir).
type BranchPriceAdjustment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BranchID  uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Percent   decimal.Decimal `gorm:"type:decimal(6,2);not null"` // [-90, 200]
	UpdatedBy *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *BranchPriceAdjustment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// BranchProductAdjustment: Şube + ürün bazlı sabit fiyat farkı (yüzde farkının üstüne eklenir).
// Kayıt yoksa fark 0'dır; 0'a çekilen fark kaydı silinir.
type BranchProductAdjustment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BranchID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_product_adjustment"`
	Branch      *Branch
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_branch_product_adjustment"` // branch_id + product_id unique
	Product     *Product
	ExtraAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"` // [-100000, 100000]
	UpdatedBy   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *BranchProductAdjustment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
