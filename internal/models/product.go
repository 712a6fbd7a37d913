package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Code      string          `gorm:"size:64;not null;uniqueIndex"` // oluşturulduktan sonra değişmez
	Name      string          `gorm:"size:120;not null"`
	BasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null"` // tepsi başı liste fiyatı
	ImageRef  string          `gorm:"size:1000"`
	IsActive  bool            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
