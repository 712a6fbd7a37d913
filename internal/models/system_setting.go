package models

import (
	"time"

	"github.com/google/uuid"
)

// SystemSetting: Anahtar/değer sistem ayarı. Tanımlı olmayan anahtarlar varsayılan değeri kullanır.
type SystemSetting struct {
	Key       string     `gorm:"size:64;primaryKey"`
	Value     string     `gorm:"size:1000;not null"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedAt time.Time
}
