package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Center: Bölge merkezi (merkez). Bağlı şubelerin siparişlerini onaylar ve teslim eder.
type Center struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:120;not null"`
	Manager   string    `gorm:"size:120"`
	Phone     string    `gorm:"size:40"`
	Email     string    `gorm:"size:120"`
	Address   string    `gorm:"size:500"`
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Branches []Branch
	Users    []User
}

func (c *Center) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
