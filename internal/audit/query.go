package audit

import (
	"fmt"
	"strings"
	"time"

	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	maxListLimit     = 300
)

// Filter: Boş alanlar filtrelenmez
type Filter struct {
	From       *time.Time // dahil
	To         *time.Time // hariç
	Action     string
	EntityType string
	EntityID   string
	BranchID   *uuid.UUID
	UserID     *uuid.UUID
	Query      string // açıklama / kullanıcı adında arama
	Limit      int
}

// ListLogs: En yeni önce, en fazla 300 kayıt
func ListLogs(db *gorm.DB, f Filter) ([]models.AuditLog, error) {
	q := db.Model(&models.AuditLog{})

	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at < ?", f.To.UTC())
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID != nil {
		q = q.Where("actor_user_id = ?", *f.UserID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(description) LIKE ? OR LOWER(actor_name) LIKE ? OR LOWER(entity_id) LIKE ?", like, like, like)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Limit(clampLimit(f.Limit)).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("loglar listelenemedi: %w", err)
	}
	return logs, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}
