package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Decision: Kalem bazlı karar. Sıfır değeri reddir.
type Decision struct {
	qty int
}

// ApproveQty: qty tepsi onay; kalemin istenen adedine sınırlanır
func ApproveQty(qty int) Decision { return Decision{qty: qty} }

func Reject() Decision { return Decision{} }

func (d Decision) Approved() bool { return d.qty > 0 }

// DecideFunc her kalem için bir karar döndürmelidir; bilinmeyen kalemler Reject.
type DecideFunc func(item models.OrderItem) Decision

func approveAll(item models.OrderItem) Decision { return ApproveQty(item.QtyTray) }

func rejectAll(models.OrderItem) Decision { return Reject() }

// errNotPending: Koşullu update 0 satır etkiledi (başka bir karar önce yazıldı)
var errNotPending = errors.New("sipariş artık beklemede değil")

// decide: PENDING siparişe kararları uygular, toplamları onaylanan kalemlerden yeniden hesaplar.
// Order.Items yüklü olmalı; tx içinde çağrılır.
func decide(tx *gorm.DB, o *models.Order, fn DecideFunc, actorID uuid.UUID, now time.Time) error {
	approvedLines := 0
	totalTray := 0
	totalAmount := decimal.Zero
	qtys := make([]int, len(o.Items))

	for i, item := range o.Items {
		q := fn(item).qty
		if q > item.QtyTray {
			q = item.QtyTray
		}
		if q < 0 {
			q = 0
		}
		qtys[i] = q
		if q > 0 {
			approvedLines++
			totalTray += q
			totalAmount = totalAmount.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(q))))
		}
	}

	status := deriveStatus(approvedLines, len(o.Items))

	updates := map[string]any{
		"status":       status,
		"total_tray":   totalTray,
		"total_amount": totalAmount,
		"approved_by":  nil,
		"approved_at":  nil,
		"updated_at":   now,
	}
	if status != models.OrderStatusRejected {
		updates["approved_by"] = actorID
		updates["approved_at"] = now
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, models.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("sipariş güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotPending
	}

	for i := range o.Items {
		q := qtys[i]
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", o.Items[i].ID).
			Update("approved_qty_tray", q).Error; err != nil {
			return fmt.Errorf("sipariş kalemi güncellenemedi: %w", err)
		}
		o.Items[i].ApprovedQtyTray = &q
	}

	o.Status = status
	o.TotalTray = totalTray
	o.TotalAmount = totalAmount
	if status == models.OrderStatusRejected {
		o.ApprovedBy, o.ApprovedAt = nil, nil
	} else {
		actor, at := actorID, now
		o.ApprovedBy, o.ApprovedAt = &actor, &at
	}
	return nil
}

// deriveStatus: hepsi onaylı -> APPROVED, hiçbiri -> REJECTED, aksi halde kısmi
func deriveStatus(approved, total int) models.OrderStatus {
	switch {
	case total > 0 && approved == total:
		return models.OrderStatusApproved
	case approved == 0:
		return models.OrderStatusRejected
	default:
		return models.OrderStatusPartiallyApproved
	}
}

// loadVisible: Sipariş yoksa 404, scope dışındaysa 403
func (s *Service) loadVisible(db *gorm.DB, scope access.Scope, id uuid.UUID) (*models.Order, error) {
	o, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	if !access.CanSeeOrder(scope, o) {
		return nil, ErrOrderForbidden
	}
	return o, nil
}

// Approve: Tüm kalemleri istenen adetle onaylar
func (s *Service) Approve(ctx context.Context, scope access.Scope, id, actorID uuid.UUID) (*models.Order, error) {
	return s.decideOne(ctx, scope, id, actorID, approveAll)
}

// Reject: Tüm kalemleri reddeder, toplamlar sıfırlanır
func (s *Service) Reject(ctx context.Context, scope access.Scope, id, actorID uuid.UUID) (*models.Order, error) {
	return s.decideOne(ctx, scope, id, actorID, rejectAll)
}

func (s *Service) decideOne(ctx context.Context, scope access.Scope, id, actorID uuid.UUID, fn DecideFunc) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	o, err := s.loadVisible(db, scope, id)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return decide(tx, o, fn, actorID, s.now())
	})
	if errors.Is(err, errNotPending) {
		return nil, ErrOrderNotPending
	}
	if err != nil {
		return nil, err
	}
	return s.load(db, id)
}

// ItemDecisionInput: Bir sipariş için kalem bazlı karar listesi.
// Listede olmayan kalemler reddedilir.
type ItemDecisionInput struct {
	OrderID        uuid.UUID
	ApproveItemIDs []uuid.UUID
	RejectItemIDs  []uuid.UUID
	ApproveQty     map[uuid.UUID]int // opsiyonel: onaylanan kalem için tepsi adedi
}

type BulkInput struct {
	ApproveIDs    []uuid.UUID
	RejectIDs     []uuid.UUID
	ItemDecisions []ItemDecisionInput
}

type BulkResult struct {
	ApprovedCount          int         `json:"approved_count"`
	PartiallyApprovedCount int         `json:"partially_approved_count"`
	RejectedCount          int         `json:"rejected_count"`
	AffectedRows           int         `json:"affected_rows"`
	SkippedOrderIDs        []uuid.UUID `json:"skipped_order_ids"`

	// Karar verilen siparişler (audit için)
	Decided []*models.Order `json:"-"`
}

type bulkTask struct {
	orderID uuid.UUID
	fn      DecideFunc
}

// BulkDecide: Karışık toplu karar. Her sipariş kendi transaction'ında işlenir.
// Scope dışı tek bir sipariş bile varsa hiçbir değişiklik yapılmaz.
// Bulunamayan veya beklemede olmayan siparişler atlanır ve SkippedOrderIDs'de döner.
func (s *Service) BulkDecide(ctx context.Context, scope access.Scope, in BulkInput, actorID uuid.UUID) (*BulkResult, error) {
	tasks, ids, err := planBulk(in)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var orders []models.Order
	if err := db.Preload("Branch").Preload("Items", itemOrder).Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("siparişler okunamadı: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Order, len(orders))
	for i := range orders {
		if !access.CanSeeOrder(scope, &orders[i]) {
			return nil, ErrOrderForbidden.Withf("Bu siparişe erişim yetkiniz yok: %s", orders[i].ID)
		}
		byID[orders[i].ID] = &orders[i]
	}

	if err := validateItemDecisions(in.ItemDecisions, byID); err != nil {
		return nil, err
	}

	result := &BulkResult{SkippedOrderIDs: []uuid.UUID{}}
	for _, task := range tasks {
		o := byID[task.orderID]
		if o == nil || o.Status != models.OrderStatusPending {
			result.SkippedOrderIDs = append(result.SkippedOrderIDs, task.orderID)
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			return decide(tx, o, task.fn, actorID, s.now())
		})
		if errors.Is(err, errNotPending) {
			result.SkippedOrderIDs = append(result.SkippedOrderIDs, task.orderID)
			continue
		}
		if err != nil {
			return nil, err
		}

		result.AffectedRows++
		switch o.Status {
		case models.OrderStatusApproved:
			result.ApprovedCount++
		case models.OrderStatusPartiallyApproved:
			result.PartiallyApprovedCount++
		case models.OrderStatusRejected:
			result.RejectedCount++
		}
		result.Decided = append(result.Decided, o)
	}

	return result, nil
}

// planBulk: Aynı sipariş birden fazla karar grubunda olamaz
func planBulk(in BulkInput) ([]bulkTask, []uuid.UUID, error) {
	var tasks []bulkTask
	seen := map[uuid.UUID]bool{}

	add := func(id uuid.UUID, fn DecideFunc) error {
		if id == uuid.Nil {
			return apperr.Validation("Geçersiz sipariş ID")
		}
		if seen[id] {
			return apperr.Validation(fmt.Sprintf("Sipariş birden fazla kararda yer alıyor: %s", id))
		}
		seen[id] = true
		tasks = append(tasks, bulkTask{orderID: id, fn: fn})
		return nil
	}

	for _, id := range in.ApproveIDs {
		if err := add(id, approveAll); err != nil {
			return nil, nil, err
		}
	}
	for _, id := range in.RejectIDs {
		if err := add(id, rejectAll); err != nil {
			return nil, nil, err
		}
	}
	for _, d := range in.ItemDecisions {
		if err := add(d.OrderID, itemDecider(d)); err != nil {
			return nil, nil, err
		}
	}

	if len(tasks) == 0 {
		return nil, nil, apperr.Validation("En az bir sipariş kararı gönderilmelidir")
	}

	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.orderID)
	}
	return tasks, ids, nil
}

func itemDecider(d ItemDecisionInput) DecideFunc {
	approve := make(map[uuid.UUID]bool, len(d.ApproveItemIDs))
	for _, id := range d.ApproveItemIDs {
		approve[id] = true
	}
	return func(item models.OrderItem) Decision {
		if !approve[item.ID] {
			return Reject()
		}
		if q, ok := d.ApproveQty[item.ID]; ok {
			return ApproveQty(q)
		}
		return ApproveQty(item.QtyTray)
	}
}

// validateItemDecisions: Kalemler siparişe ait olmalı, aynı kalem hem onay hem red listesinde olamaz.
// Bulunamayan siparişler burada değil işleme sırasında atlanır.
func validateItemDecisions(decisions []ItemDecisionInput, byID map[uuid.UUID]*models.Order) error {
	for _, d := range decisions {
		o := byID[d.OrderID]
		if o == nil {
			continue
		}

		items := make(map[uuid.UUID]models.OrderItem, len(o.Items))
		for _, it := range o.Items {
			items[it.ID] = it
		}

		approve := map[uuid.UUID]bool{}
		for _, id := range d.ApproveItemIDs {
			if _, ok := items[id]; !ok {
				return apperr.Validation(fmt.Sprintf("Kalem bu siparişe ait değil: %s", id))
			}
			approve[id] = true
		}
		for _, id := range d.RejectItemIDs {
			if _, ok := items[id]; !ok {
				return apperr.Validation(fmt.Sprintf("Kalem bu siparişe ait değil: %s", id))
			}
			if approve[id] {
				return apperr.Validation(fmt.Sprintf("Kalem hem onay hem red listesinde: %s", id))
			}
		}
		for id, q := range d.ApproveQty {
			if !approve[id] {
				return apperr.Validation(fmt.Sprintf("Adet sadece onaylanan kalemler için verilebilir: %s", id))
			}
			if q < 1 || q > items[id].QtyTray {
				return apperr.Validation(fmt.Sprintf("Onay adedi 1 ile %d arasında olmalı: %s", items[id].QtyTray, id))
			}
		}
	}
	return nil
}

// MarkDelivered: Sadece onaylı/kısmi onaylı siparişler teslim edilebilir.
// Zaten teslim edilmiş sipariş değiştirilmeden döner.
func (s *Service) MarkDelivered(ctx context.Context, scope access.Scope, id, actorID uuid.UUID) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	o, err := s.loadVisible(db, scope, id)
	if err != nil {
		return nil, err
	}
	if o.DeliveryStatus == models.DeliveryStatusDelivered {
		return o, nil
	}
	if !o.Status.Deliverable() {
		return nil, ErrOrderNotApproved
	}

	now := s.now()
	res := db.Model(&models.Order{}).
		Where("id = ? AND delivery_status = ? AND status IN ?", id, models.DeliveryStatusAwaiting,
			[]models.OrderStatus{models.OrderStatusApproved, models.OrderStatusPartiallyApproved}).
		Updates(map[string]any{
			"delivery_status": models.DeliveryStatusDelivered,
			"delivered_by":    actorID,
			"delivered_at":    now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("teslimat kaydedilemedi: %w", res.Error)
	}

	return s.load(db, id)
}
