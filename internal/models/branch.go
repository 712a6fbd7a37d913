package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Branch struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CenterID  *uuid.UUID `gorm:"type:uuid;index"` // bağlı olduğu merkez
	Center    *Center
	Name      string `gorm:"size:120;not null;unique"`
	Manager   string `gorm:"size:120"`
	Phone     string `gorm:"size:40"` // Opsiyonel telefon
	Email     string `gorm:"size:120"`
	Address   string `gorm:"size:500"`
	IsActive  bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PriceAdjustment *BranchPriceAdjustment
	Users           []User
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
