package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "PENDING"
	OrderStatusApproved          OrderStatus = "APPROVED"
	OrderStatusPartiallyApproved OrderStatus = "PARTIALLY_APPROVED"
	OrderStatusRejected          OrderStatus = "REJECTED"
)

// Deliverable: Teslim edilebilir durumda mı? (onaylı veya kısmi onaylı)
func (s OrderStatus) Deliverable() bool {
	return s == OrderStatusApproved || s == OrderStatusPartiallyApproved
}

type DeliveryStatus string

const (
	DeliveryStatusAwaiting  DeliveryStatus = "AWAITING"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
)

// Order: Şubenin günlük tepsi siparişi
type Order struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderNo        string    `gorm:"size:32;not null;uniqueIndex"` // SP-YYYYMMDD-HHMMSS-RRR
	BranchID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Branch         *Branch
	Status         OrderStatus    `gorm:"size:24;not null;index"`
	DeliveryStatus DeliveryStatus `gorm:"size:16;not null"`
	DeliveryDate   time.Time      `gorm:"type:date;not null"`
	DeliveryTime   string         `gorm:"size:5;not null"` // "07:00"
	Note           string         `gorm:"size:1000"`

	// Onaylanan kalemlerden türetilir
	TotalTray   int             `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	ApprovedBy  *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt  *time.Time
	DeliveredBy *uuid.UUID `gorm:"type:uuid"`
	DeliveredAt *time.Time
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	Items      []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Carryovers []OrderCarryover `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem: Sipariş kalemi. UnitPrice sipariş anındaki fiyatın kopyasıdır, sonradan yeniden hesaplanmaz.
type OrderItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Product         *Product
	QtyTray         int             `gorm:"not null"` // istenen tepsi
	ApprovedQtyTray *int            // nil = karar verilmedi
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position        int             `gorm:"not null;default:0"` // gönderim sırası
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderCarryover: Önceki günden kalan ürün miktarı (bilgi amaçlı, fiyatı etkilemez)
type OrderCarryover struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Product   *Product
	QtyKg     decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	CreatedAt time.Time
}

func (c *OrderCarryover) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
