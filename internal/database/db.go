package database

import (
	"log"
	"time"

	"siparis-backend/internal/config"
	"siparis-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// GormConfig: Unique ihlalleri gorm.ErrDuplicatedKey olarak döner; zaman damgaları UTC yazılır
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), GormConfig())
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tüm tabloları oluşturur/günceller. Sıra foreign key bağımlılıklarına göre.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Center{},
		&models.Branch{},
		&models.User{},
		&models.Product{},
		&models.BranchPriceAdjustment{},
		&models.BranchProductAdjustment{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCarryover{},
		&models.AuditLog{},
		&models.SystemSetting{},
	)
}
