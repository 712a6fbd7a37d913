package order

import (
	"context"
	"fmt"
	"time"

	"siparis-backend/internal/access"

	"github.com/shopspring/decimal"
)

// SummaryRow: Bir teslim günü için ürün bazlı üretim ihtiyacı
type SummaryRow struct {
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	OrderCount     int             `json:"order_count"`
	RequestedTray  int             `json:"requested_tray"`
	ApprovedTray   int             `json:"approved_tray"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}

type Summary struct {
	Date           string          `json:"date"`
	Rows           []SummaryRow    `json:"rows"`
	RequestedTray  int             `json:"requested_tray"`
	ApprovedTray   int             `json:"approved_tray"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}

// DailySummary: Teslim tarihi date olan görünür siparişlerin ürün bazlı toplamı.
// Onaylanan adet karar verilmemiş kalemlerde 0 sayılır.
func (s *Service) DailySummary(ctx context.Context, scope access.Scope, date string) (*Summary, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	from := day.Format("2006-01-02")
	to := day.AddDate(0, 0, 1).Format("2006-01-02")

	var rows []SummaryRow

	err = s.db.WithContext(ctx).Table("order_items").
		Select(`products.code AS product_code, products.name AS product_name,
			COUNT(DISTINCT orders.id) AS order_count,
			SUM(order_items.qty_tray) AS requested_tray,
			SUM(COALESCE(order_items.approved_qty_tray, 0)) AS approved_tray,
			SUM(COALESCE(order_items.approved_qty_tray, 0) * order_items.unit_price) AS approved_amount`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Scopes(access.OrderFilter(scope)).
		Where("orders.delivery_date >= ? AND orders.delivery_date < ?", from, to).
		Group("products.code, products.name").
		Order("products.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("üretim özeti hesaplanamadı: %w", err)
	}

	sum := &Summary{Date: from, Rows: rows, ApprovedAmount: decimal.Zero}
	if sum.Rows == nil {
		sum.Rows = []SummaryRow{}
	}
	for _, r := range rows {
		sum.RequestedTray += r.RequestedTray
		sum.ApprovedTray += r.ApprovedTray
		sum.ApprovedAmount = sum.ApprovedAmount.Add(r.ApprovedAmount)
	}
	return sum, nil
}

// ExportFileName: "uretim-2025-12-09.xlsx"
func ExportFileName(date string) string {
	if d, err := time.Parse("2006-01-02", date); err == nil {
		date = d.Format("2006-01-02")
	}
	return fmt.Sprintf("uretim-%s.xlsx", date)
}
