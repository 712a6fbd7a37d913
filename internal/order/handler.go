package order

import (
	"fmt"
	"time"

	"siparis-backend/internal/access"
	"siparis-backend/internal/audit"
	"siparis-backend/internal/auth"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest: Yeni sipariş
type CreateOrderRequest struct {
	BranchID     *uuid.UUID             `json:"branch_id"`     // admin için
	DeliveryDate string                 `json:"delivery_date"` // "2025-12-09"
	DeliveryTime string                 `json:"delivery_time"` // boşsa sistem ayarı
	Note         string                 `json:"note"`
	Items        []OrderItemRequest     `json:"items"`
	Carryovers   []CarryoverItemRequest `json:"carryovers"`
}

type OrderItemRequest struct {
	ProductCode string `json:"product_code"`
	QtyTray     int    `json:"qty_tray"`
}

type CarryoverItemRequest struct {
	ProductCode string          `json:"product_code"`
	QtyKg       decimal.Decimal `json:"qty_kg"`
}

type DecideBulkRequest struct {
	ApproveIDs    []uuid.UUID           `json:"approve_ids"`
	RejectIDs     []uuid.UUID           `json:"reject_ids"`
	ItemDecisions []ItemDecisionRequest `json:"item_decisions"`
}

type ItemDecisionRequest struct {
	OrderID        uuid.UUID         `json:"order_id"`
	ApproveItemIDs []uuid.UUID       `json:"approve_item_ids"`
	RejectItemIDs  []uuid.UUID       `json:"reject_item_ids"`
	ApproveQty     map[uuid.UUID]int `json:"approve_qty"`
}

// OrderResponse: Sipariş yanıtı
type OrderResponse struct {
	ID             uuid.UUID             `json:"id"`
	OrderNo        string                `json:"order_no"`
	BranchID       uuid.UUID             `json:"branch_id"`
	BranchName     string                `json:"branch_name"`
	Status         models.OrderStatus    `json:"status"`
	DeliveryStatus models.DeliveryStatus `json:"delivery_status"`
	DeliveryDate   string                `json:"delivery_date"`
	DeliveryTime   string                `json:"delivery_time"`
	Note           string                `json:"note"`
	TotalTray      int                   `json:"total_tray"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	ApprovedBy     *uuid.UUID            `json:"approved_by"`
	ApprovedAt     *string               `json:"approved_at"`
	DeliveredBy    *uuid.UUID            `json:"delivered_by"`
	DeliveredAt    *string               `json:"delivered_at"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
	Items          []OrderItemResponse   `json:"items"`
	Carryovers     []CarryoverResponse   `json:"carryovers"`
}

type OrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	QtyTray         int             `json:"qty_tray"`
	ApprovedQtyTray *int            `json:"approved_qty_tray"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

type CarryoverResponse struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	QtyKg       decimal.Decimal `json:"qty_kg"`
}

const timeLayout = "2006-01-02 15:04:05"

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func NewOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:             o.ID,
		OrderNo:        o.OrderNo,
		BranchID:       o.BranchID,
		Status:         o.Status,
		DeliveryStatus: o.DeliveryStatus,
		DeliveryDate:   o.DeliveryDate.Format("2006-01-02"),
		DeliveryTime:   o.DeliveryTime,
		Note:           o.Note,
		TotalTray:      o.TotalTray,
		TotalAmount:    o.TotalAmount,
		ApprovedBy:     o.ApprovedBy,
		ApprovedAt:     formatTimePtr(o.ApprovedAt),
		DeliveredBy:    o.DeliveredBy,
		DeliveredAt:    formatTimePtr(o.DeliveredAt),
		CreatedAt:      o.CreatedAt.Format(timeLayout),
		UpdatedAt:      o.UpdatedAt.Format(timeLayout),
		Items:          make([]OrderItemResponse, 0, len(o.Items)),
		Carryovers:     make([]CarryoverResponse, 0, len(o.Carryovers)),
	}
	if o.Branch != nil {
		resp.BranchName = o.Branch.Name
	}

	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			QtyTray:         it.QtyTray,
			ApprovedQtyTray: it.ApprovedQtyTray,
			UnitPrice:       it.UnitPrice,
		}
		if it.Product != nil {
			item.ProductCode = it.Product.Code
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	for _, co := range o.Carryovers {
		row := CarryoverResponse{QtyKg: co.QtyKg}
		if co.Product != nil {
			row.ProductCode = co.Product.Code
			row.ProductName = co.Product.Name
		}
		resp.Carryovers = append(resp.Carryovers, row)
	}
	return resp
}

func newOrderListResponse(orders []models.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, NewOrderResponse(&orders[i]))
	}
	return resp
}

// orderSnapshot: Audit log için özet (kalemler hariç)
func orderSnapshot(o *models.Order) fiber.Map {
	return fiber.Map{
		"order_no":        o.OrderNo,
		"status":          o.Status,
		"delivery_status": o.DeliveryStatus,
		"total_tray":      o.TotalTray,
		"total_amount":    o.TotalAmount,
	}
}

func writeOrderLog(svc *Service, c *fiber.Ctx, id *auth.Identity, o *models.Order, action models.AuditAction, description string) {
	_ = audit.WriteLog(svc.db.WithContext(c.UserContext()), audit.LogOptions{
		BranchID:    &o.BranchID,
		UserID:      &id.UserID,
		UserName:    id.Name,
		EntityType:  "order",
		EntityID:    o.ID.String(),
		Action:      action,
		Description: description,
		After:       orderSnapshot(o),
	})
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return id, nil
}

func parseUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Geçersiz %s", name))
	}
	return &id, nil
}

// queryDate: Parametre yoksa bugünün tarihi (yapılandırılmış saat diliminde)
func (s *Service) queryDate(c *fiber.Ctx) string {
	if v := c.Query("date"); v != "" {
		return v
	}
	return s.now().In(s.loc).Format("2006-01-02")
}

// POST /api/orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		id, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		in := CreateInput{
			BranchID:     body.BranchID,
			DeliveryDate: body.DeliveryDate,
			DeliveryTime: body.DeliveryTime,
			Note:         body.Note,
		}
		for _, it := range body.Items {
			in.Items = append(in.Items, ItemInput{ProductCode: it.ProductCode, QtyTray: it.QtyTray})
		}
		for _, co := range body.Carryovers {
			in.Carryovers = append(in.Carryovers, CarryoverInput{ProductCode: co.ProductCode, QtyKg: co.QtyKg})
		}

		o, err := svc.Create(c.UserContext(), scope, in)
		if err != nil {
			return err
		}

		writeOrderLog(svc, c, id, o, models.AuditActionCreate,
			fmt.Sprintf("Sipariş oluşturuldu: %s, %d tepsi, Toplam: %s TL", o.OrderNo, o.TotalTray, o.TotalAmount.StringFixed(2)))

		return c.Status(fiber.StatusCreated).JSON(NewOrderResponse(o))
	}
}

// GET /api/orders/my?from=2025-12-01&to=2025-12-31
func ListMyOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}
		// Admin başka bir şubenin gözüyle bakabilir; branch_id zorunlu
		var branchID *uuid.UUID
		if _, ok := access.BranchOf(scope); !ok {
			if _, admin := scope.(access.AdminScope); !admin {
				return ErrBranchRequired
			}
			if branchID, err = parseUUIDQuery(c, "branch_id"); err != nil {
				return err
			}
			if branchID == nil {
				return ErrBranchRequired
			}
		}

		orders, err := svc.List(c.UserContext(), scope, ListFilter{
			From:     c.Query("from"),
			To:       c.Query("to"),
			BranchID: branchID,
			Status:   c.Query("status"),
		})
		if err != nil {
			return err
		}
		return c.JSON(newOrderListResponse(orders))
	}
}

// GET /api/orders?date=2025-12-09&branch_id=...&status=PENDING
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}
		branchID, err := parseUUIDQuery(c, "branch_id")
		if err != nil {
			return err
		}

		orders, err := svc.List(c.UserContext(), scope, ListFilter{
			Date:     c.Query("date"),
			From:     c.Query("from"),
			To:       c.Query("to"),
			BranchID: branchID,
			Status:   c.Query("status"),
		})
		if err != nil {
			return err
		}
		return c.JSON(newOrderListResponse(orders))
	}
}

// GET /api/orders/:id
func GetOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := parseUUIDParam(c, "id")
		if err != nil {
			return err
		}
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		o, err := svc.Get(c.UserContext(), scope, orderID)
		if err != nil {
			return err
		}
		return c.JSON(NewOrderResponse(o))
	}
}

// GET /api/orders/carryover?date=2025-12-09&branch_id=...
func CarryoverHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}
		branchID, err := parseUUIDQuery(c, "branch_id")
		if err != nil {
			return err
		}

		base, err := svc.localDay(svc.queryDate(c))
		if err != nil {
			return err
		}

		candidates, err := svc.Candidates(c.UserContext(), scope, branchID, base)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"date":       base.Format("2006-01-02"),
			"candidates": candidates,
		})
	}
}

// GET /api/orders/summary?date=2025-12-09
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		sum, err := svc.DailySummary(c.UserContext(), scope, svc.queryDate(c))
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}

// GET /api/orders/summary/export?date=2025-12-09
func ExportSummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		sum, err := svc.DailySummary(c.UserContext(), scope, svc.queryDate(c))
		if err != nil {
			return err
		}

		content, err := WriteSummaryXLSX(sum)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, ExportFileName(sum.Date)))
		return c.Send(content)
	}
}

type singleDecision func(svc *Service, c *fiber.Ctx, scope access.Scope, orderID, actorID uuid.UUID) (*models.Order, error)

func decisionHandler(svc *Service, action models.AuditAction, label string, fn singleDecision) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := parseUUIDParam(c, "id")
		if err != nil {
			return err
		}
		id, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		o, err := fn(svc, c, scope, orderID, id.UserID)
		if err != nil {
			return err
		}

		writeOrderLog(svc, c, id, o, action, fmt.Sprintf("Sipariş %s: %s", label, o.OrderNo))
		return c.JSON(NewOrderResponse(o))
	}
}

// PUT /api/orders/:id/approve
func ApproveOrderHandler(svc *Service) fiber.Handler {
	return decisionHandler(svc, models.AuditActionApprove, "onaylandı",
		func(svc *Service, c *fiber.Ctx, scope access.Scope, orderID, actorID uuid.UUID) (*models.Order, error) {
			return svc.Approve(c.UserContext(), scope, orderID, actorID)
		})
}

// PUT /api/orders/:id/reject
func RejectOrderHandler(svc *Service) fiber.Handler {
	return decisionHandler(svc, models.AuditActionReject, "reddedildi",
		func(svc *Service, c *fiber.Ctx, scope access.Scope, orderID, actorID uuid.UUID) (*models.Order, error) {
			return svc.Reject(c.UserContext(), scope, orderID, actorID)
		})
}

// PUT /api/orders/:id/deliver
func DeliverOrderHandler(svc *Service) fiber.Handler {
	return decisionHandler(svc, models.AuditActionDeliver, "teslim edildi",
		func(svc *Service, c *fiber.Ctx, scope access.Scope, orderID, actorID uuid.UUID) (*models.Order, error) {
			return svc.MarkDelivered(c.UserContext(), scope, orderID, actorID)
		})
}

// PUT /api/orders/decide-bulk
func DecideBulkHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DecideBulkRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		id, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		in := BulkInput{ApproveIDs: body.ApproveIDs, RejectIDs: body.RejectIDs}
		for _, d := range body.ItemDecisions {
			in.ItemDecisions = append(in.ItemDecisions, ItemDecisionInput{
				OrderID:        d.OrderID,
				ApproveItemIDs: d.ApproveItemIDs,
				RejectItemIDs:  d.RejectItemIDs,
				ApproveQty:     d.ApproveQty,
			})
		}

		result, err := svc.BulkDecide(c.UserContext(), scope, in, id.UserID)
		if err != nil {
			return err
		}

		for _, o := range result.Decided {
			action := models.AuditActionApprove
			if o.Status == models.OrderStatusRejected {
				action = models.AuditActionReject
			}
			writeOrderLog(svc, c, id, o, action, fmt.Sprintf("Toplu karar: %s -> %s", o.OrderNo, o.Status))
		}

		return c.JSON(result)
	}
}
