package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleBranch UserRole = "sube"
	RoleCenter UserRole = "merkez"
	RoleAdmin  UserRole = "admin"
)

// Valid: Bilinen rollerden biri mi?
func (r UserRole) Valid() bool {
	switch r {
	case RoleBranch, RoleCenter, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BranchID     *uuid.UUID `gorm:"type:uuid;index"` // sadece şube kullanıcıları
	Branch       *Branch
	CenterID     *uuid.UUID `gorm:"type:uuid;index"` // sadece merkez kullanıcıları
	Center       *Center
	Email        string   `gorm:"size:120;uniqueIndex;not null"`
	Phone        *string  `gorm:"size:20;uniqueIndex"` // 90XXXXXXXXXX formatında
	DisplayName  string   `gorm:"size:120"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	IsActive     bool     `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
