package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/audit"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	auditEntityType = "settings"
	auditEntityID   = "system"

	defaultHistoryLimit = 30
	maxHistoryLimit     = 100
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Actor: Değişikliği yapan kullanıcı (audit için)
type Actor struct {
	ID   uuid.UUID
	Name string
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	return load(s.db.WithContext(ctx))
}

func load(db *gorm.DB) (Settings, error) {
	var rows []models.SystemSetting
	if err := db.Find(&rows).Error; err != nil {
		return Settings{}, fmt.Errorf("ayarlar okunamadı: %w", err)
	}
	stored := make(map[string]string, len(rows))
	for _, r := range rows {
		stored[r.Key] = r.Value
	}
	return Merge(stored), nil
}

// Update: Sadece değişen anahtarlar upsert edilir; değişiklik yoksa changes boş döner.
// Kayıt ve audit log aynı transaction içindedir.
func (s *Service) Update(ctx context.Context, in UpdateInput, actor Actor) (Settings, []Change, error) {
	if in.empty() {
		return Settings{}, nil, apperr.Validation("En az bir ayar gönderilmeli")
	}

	var (
		result  Settings
		changes []Change
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := load(tx)
		if err != nil {
			return err
		}
		next, err := in.applyTo(cur)
		if err != nil {
			return apperr.Validation(err.Error())
		}

		changes = diff(cur, next)
		result = next
		if len(changes) == 0 {
			return nil
		}

		now := time.Now()
		before := make(map[string]string, len(changes))
		after := make(map[string]string, len(changes))
		changedKeys := make([]string, 0, len(changes))
		for _, ch := range changes {
			row := models.SystemSetting{Key: ch.Key, Value: ch.After, UpdatedBy: &actor.ID, UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("ayar kaydedilemedi (%s): %w", ch.Key, err)
			}
			before[ch.Key] = ch.Before
			after[ch.Key] = ch.After
			changedKeys = append(changedKeys, ch.Key)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      &actor.ID,
			UserName:    actor.Name,
			EntityType:  auditEntityType,
			EntityID:    auditEntityID,
			Action:      models.AuditActionUpdate,
			Description: "Sistem ayarları güncellendi: " + strings.Join(changedKeys, ", "),
			Before:      before,
			After:       after,
		})
	})
	if err != nil {
		return Settings{}, nil, err
	}
	return result, changes, nil
}

// HistoryEntry: Ayar değişikliği geçmişi satırı
type HistoryEntry struct {
	ID        uuid.UUID  `json:"id"`
	ChangedAt time.Time  `json:"changed_at"`
	ActorID   *uuid.UUID `json:"actor_id"`
	ActorName string     `json:"actor_name"`
	Changes   []Change   `json:"changes"`
}

// History: Audit log'dan en yeni önce, varsayılan 30 / en fazla 100 kayıt
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	logs, err := audit.ListLogs(s.db.WithContext(ctx), audit.Filter{EntityType: auditEntityType, Limit: limit})
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, HistoryEntry{
			ID:        l.ID,
			ChangedAt: l.CreatedAt,
			ActorID:   l.ActorUserID,
			ActorName: l.ActorName,
			Changes:   changesFromLog(l.BeforeData, l.AfterData),
		})
	}
	return out, nil
}

func changesFromLog(beforeJSON, afterJSON string) []Change {
	var before, after map[string]string
	_ = json.Unmarshal([]byte(beforeJSON), &before)
	_ = json.Unmarshal([]byte(afterJSON), &after)

	changes := make([]Change, 0, len(after))
	for _, k := range keys {
		v, ok := after[k]
		if !ok {
			continue
		}
		changes = append(changes, Change{Key: k, Before: before[k], After: v})
	}
	return changes
}

// DefaultDeliveryTime: Sipariş oluştururken saat verilmediğinde kullanılır.
// Ayarlar okunamazsa varsayılan değer döner.
func (s *Service) DefaultDeliveryTime(ctx context.Context) string {
	cur, err := s.Get(ctx)
	if err != nil {
		log.Printf("[WARN] varsayılan teslim saati okunamadı: %v", err)
		return Defaults().DefaultDeliveryTime
	}
	return cur.DefaultDeliveryTime
}

// AccessTokenTTL: Sadece ayar kaydedilmişse döner; 0 ise config'deki süre geçerlidir
func (s *Service) AccessTokenTTL(ctx context.Context) time.Duration {
	var row models.SystemSetting
	err := s.db.WithContext(ctx).Where(&models.SystemSetting{Key: KeyAccessTokenMinutes}).Limit(1).Find(&row).Error
	if err != nil {
		log.Printf("[WARN] oturum süresi okunamadı: %v", err)
		return 0
	}
	if row.Key == "" {
		return 0
	}
	return time.Duration(Merge(map[string]string{row.Key: row.Value}).AccessTokenMinutes) * time.Minute
}

// CheckPassword: Güncel şifre kuralına göre doğrular
func (s *Service) CheckPassword(ctx context.Context, password string) error {
	cur, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := cur.CheckPassword(password); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}
