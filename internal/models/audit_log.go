package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionApprove AuditAction = "approve"
	AuditActionReject  AuditAction = "reject"
	AuditActionDeliver AuditAction = "deliver"
)

type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Hangi şube?
	BranchID *uuid.UUID `gorm:"type:uuid;index" json:"branch_id"`

	// Hangi kullanıcı?
	ActorUserID *uuid.UUID `gorm:"type:uuid;index" json:"actor_user_id"`
	ActorName   string     `gorm:"size:120" json:"actor_name"` // denormalize

	// Hangi entity? (ör: "order", "branch_price_adjustment", "settings")
	EntityType string `gorm:"size:60;index" json:"entity_type"`
	EntityID   string `gorm:"size:120;index" json:"entity_id"`

	Action      AuditAction `gorm:"size:30;index" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// Önceki ve sonraki hal (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
