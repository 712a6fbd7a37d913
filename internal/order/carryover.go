package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Candidate: Dünkü siparişlerde istenen toplam tepsi (devir girişi için öneri)
type Candidate struct {
	ProductCode   string `json:"product_code"`
	Name          string `json:"name"`
	YesterdayTray int    `json:"yesterday_tray"`
}

// Candidates: Şubenin baseDate'ten bir önceki takvim gününde oluşturduğu siparişlerin ürün bazlı toplamı.
// Gün sınırları yapılandırılmış saat dilimine göredir.
func (s *Service) Candidates(ctx context.Context, scope access.Scope, branchID *uuid.UUID, baseDate time.Time) ([]Candidate, error) {
	id, err := targetBranch(scope, branchID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var branch models.Branch
	if err := db.First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, fmt.Errorf("şube okunamadı: %w", err)
	}
	if !access.CanSeeBranch(scope, &branch) {
		return nil, ErrOrderForbidden
	}

	// Yerel gün sınırları; created_at UTC saklanır
	end := startOfDay(baseDate, s.loc)
	start := end.AddDate(0, 0, -1)

	out := []Candidate{}
	err = db.Table("order_items").
		Select("products.code AS product_code, products.name AS name, SUM(order_items.qty_tray) AS yesterday_tray").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.branch_id = ? AND orders.created_at >= ? AND orders.created_at < ?", id, start.UTC(), end.UTC()).
		Group("products.code, products.name").
		Order("products.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("devir adayları hesaplanamadı: %w", err)
	}
	return out, nil
}
