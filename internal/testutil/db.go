// Package testutil servis testleri için bellek içi SQLite veritabanı ve örnek kayıt üretir.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"siparis-backend/internal/database"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB: Teste özel, migrate edilmiş bellek içi veritabanı.
// Tek bağlantı kullanılır; transaction içinde dış *gorm.DB kullanmak kilitlenmeye yol açar.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	cfg := database.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("sqlite açılamadı: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Center(t testing.TB, db *gorm.DB, name string) *models.Center {
	t.Helper()
	c := &models.Center{Name: name, IsActive: true}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("merkez oluşturulamadı: %v", err)
	}
	return c
}

func Branch(t testing.TB, db *gorm.DB, name string, center *models.Center) *models.Branch {
	t.Helper()
	b := &models.Branch{Name: name, IsActive: true}
	if center != nil {
		b.CenterID = &center.ID
	}
	if err := db.Omit("Center", "PriceAdjustment", "Users").Create(b).Error; err != nil {
		t.Fatalf("şube oluşturulamadı: %v", err)
	}
	return b
}

func Product(t testing.TB, db *gorm.DB, code string, basePrice int64) *models.Product {
	t.Helper()
	p := &models.Product{Code: code, Name: code, BasePrice: decimal.NewFromInt(basePrice), IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	return p
}

// Deactivate: Builder'ların aktif oluşturduğu kaydı pasife alır
func Deactivate(t testing.TB, db *gorm.DB, model any) {
	t.Helper()
	if err := db.Model(model).Update("is_active", false).Error; err != nil {
		t.Fatalf("pasife alınamadı: %v", err)
	}
}

// User: Verilen rol ve ilişkiyle aktif kullanıcı. Şifre bcrypt ile hashlenir.
func User(t testing.TB, db *gorm.DB, email, password string, role models.UserRole, branch *models.Branch, center *models.Center) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("şifre hashlenemedi: %v", err)
	}
	u := &models.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if branch != nil {
		u.BranchID = &branch.ID
	}
	if center != nil {
		u.CenterID = &center.ID
	}
	if err := db.Omit("Branch", "Center").Create(u).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}
	return u
}

// ItemSpec: Pending sipariş kalemi (ürün, tepsi, birim fiyat)
type ItemSpec struct {
	Product   *models.Product
	QtyTray   int
	UnitPrice int64
}

// PendingOrder: Builder'ı atlayarak doğrudan PENDING sipariş yazar
func PendingOrder(t testing.TB, db *gorm.DB, branch *models.Branch, createdAt time.Time, items ...ItemSpec) *models.Order {
	t.Helper()

	o := &models.Order{
		OrderNo:        "SP-TEST-" + uuid.NewString()[:12],
		BranchID:       branch.ID,
		Status:         models.OrderStatusPending,
		DeliveryStatus: models.DeliveryStatusAwaiting,
		DeliveryDate:   time.Date(createdAt.Year(), createdAt.Month(), createdAt.Day(), 0, 0, 0, 0, time.UTC),
		DeliveryTime:   "07:00",
		TotalAmount:    decimal.Zero,
		CreatedAt:      createdAt,
	}
	for _, it := range items {
		o.TotalTray += it.QtyTray
		o.TotalAmount = o.TotalAmount.Add(decimal.NewFromInt(it.UnitPrice * int64(it.QtyTray)))
	}
	if err := db.Omit("Branch", "Items", "Carryovers").Create(o).Error; err != nil {
		t.Fatalf("sipariş oluşturulamadı: %v", err)
	}
	for i, it := range items {
		item := models.OrderItem{
			OrderID:   o.ID,
			ProductID: it.Product.ID,
			QtyTray:   it.QtyTray,
			UnitPrice: decimal.NewFromInt(it.UnitPrice),
			Position:  i,
		}
		if err := db.Omit("Product").Create(&item).Error; err != nil {
			t.Fatalf("sipariş kalemi oluşturulamadı: %v", err)
		}
		o.Items = append(o.Items, item)
	}
	return o
}
