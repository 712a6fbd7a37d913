package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
)

// ListFilter: Date verilirse From/To yok sayılır. Tarihler sipariş oluşturma gününe göre.
type ListFilter struct {
	Date     string
	From     string
	To       string
	BranchID *uuid.UUID
	Status   string
}

// List: Scope'a göre görünür siparişler, en yeni önce
func (s *Service) List(ctx context.Context, scope access.Scope, f ListFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{}).Scopes(access.OrderFilter(scope))

	start, end, err := s.createdRange(f)
	if err != nil {
		return nil, err
	}
	if !start.IsZero() {
		q = q.Where("orders.created_at >= ?", start.UTC())
	}
	if !end.IsZero() {
		q = q.Where("orders.created_at < ?", end.UTC())
	}
	if f.BranchID != nil {
		q = q.Where("orders.branch_id = ?", *f.BranchID)
	}
	if f.Status != "" {
		status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(f.Status)))
		switch status {
		case models.OrderStatusPending, models.OrderStatusApproved,
			models.OrderStatusPartiallyApproved, models.OrderStatusRejected:
		default:
			return nil, apperr.Validation(fmt.Sprintf("Geçersiz durum: %s", f.Status))
		}
		q = q.Where("orders.status = ?", status)
	}

	var orders []models.Order
	if err := q.
		Preload("Branch").
		Preload("Items", itemOrder).
		Preload("Items.Product").
		Preload("Carryovers.Product").
		Order("orders.created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("siparişler listelenemedi: %w", err)
	}
	return orders, nil
}

// Get: Tek sipariş; yoksa 404, scope dışındaysa 403
func (s *Service) Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*models.Order, error) {
	return s.loadVisible(s.db.WithContext(ctx), scope, id)
}

// createdRange: [start, end) yerel gün sınırları
func (s *Service) createdRange(f ListFilter) (time.Time, time.Time, error) {
	if f.Date != "" {
		start, err := s.localDay(f.Date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, start.AddDate(0, 0, 1), nil
	}

	var start, end time.Time
	if f.From != "" {
		d, err := s.localDay(f.From)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = d
	}
	if f.To != "" {
		d, err := s.localDay(f.To)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = d.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return time.Time{}, time.Time{}, apperr.Validation("Başlangıç tarihi bitiş tarihinden sonra olamaz")
	}
	return start, end, nil
}

// localDay: "YYYY-MM-DD" -> yapılandırılmış saat diliminde gün başı
func (s *Service) localDay(v string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(v), s.loc)
	if err != nil {
		return time.Time{}, apperr.Validation("Tarih formatı 'YYYY-MM-DD' olmalı")
	}
	return d, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
