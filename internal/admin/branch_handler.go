package admin

import (
	"fmt"

	"siparis-backend/internal/audit"
	"siparis-backend/internal/auth"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BranchResponse struct {
	ID                     uuid.UUID       `json:"id"`
	Name                   string          `json:"name"`
	CenterID               *uuid.UUID      `json:"center_id"`
	CenterName             *string         `json:"center_name"`
	Manager                string          `json:"manager"`
	Phone                  string          `json:"phone"`
	Email                  string          `json:"email"`
	Address                string          `json:"address"`
	IsActive               bool            `json:"is_active"`
	PriceAdjustmentPercent decimal.Decimal `json:"price_adjustment_percent"`
	UserEmail              *string         `json:"user_email"` // şube kullanıcısı
	CreatedAt              string          `json:"created_at"`
}

type BranchRequest struct {
	Name     *string    `json:"name"`
	CenterID *uuid.UUID `json:"center_id"`
	Manager  *string    `json:"manager"`
	Phone    *string    `json:"phone"` // Opsiyonel
	Email    *string    `json:"email"`
	Address  *string    `json:"address"`
}

type StatusRequest struct {
	IsActive *bool `json:"is_active"`
}

type PriceAdjustmentRequest struct {
	Percent *decimal.Decimal `json:"percent"`
}

type ProductAdjustmentRequest struct {
	ProductID   uuid.UUID        `json:"product_id"`
	ExtraAmount *decimal.Decimal `json:"extra_amount"`
}

type ProductAdjustmentsRequest struct {
	Items []ProductAdjustmentRequest `json:"items"`
}

func NewBranchResponse(b *models.Branch) BranchResponse {
	resp := BranchResponse{
		ID:                     b.ID,
		Name:                   b.Name,
		CenterID:               b.CenterID,
		Manager:                b.Manager,
		Phone:                  b.Phone,
		Email:                  b.Email,
		Address:                b.Address,
		IsActive:               b.IsActive,
		PriceAdjustmentPercent: decimal.Zero,
		CreatedAt:              b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if b.Center != nil {
		resp.CenterName = &b.Center.Name
	}
	if b.PriceAdjustment != nil {
		resp.PriceAdjustmentPercent = b.PriceAdjustment.Percent
	}
	for i := range b.Users {
		if b.Users[i].Role == models.RoleBranch {
			resp.UserEmail = &b.Users[i].Email
			break
		}
	}
	return resp
}

func actorFrom(id *auth.Identity) Actor {
	return Actor{ID: id.UserID, Name: id.Name}
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return id, nil
}

func writeAdminLog(svc *Service, c *fiber.Ctx, branchID *uuid.UUID, entityType, entityID string, action models.AuditAction, description string, after any) {
	id, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(svc.db.WithContext(c.UserContext()), audit.LogOptions{
		BranchID:    branchID,
		UserID:      &id.UserID,
		UserName:    id.Name,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		After:       after,
	})
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

// GET /api/branches (merkez: kendi şubeleri, admin: tümü)
func ListBranchesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		branches, err := svc.ListBranches(c.UserContext(), scope)
		if err != nil {
			return err
		}

		res := make([]BranchResponse, 0, len(branches))
		for i := range branches {
			res = append(res, NewBranchResponse(&branches[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/branches (admin)
func CreateBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		b, err := svc.CreateBranch(c.UserContext(),
			NewBranchInput(body.Name, body.CenterID, body.Manager, body.Phone, body.Email, body.Address))
		if err != nil {
			return err
		}

		resp := NewBranchResponse(b)
		writeAdminLog(svc, c, &b.ID, "branch", b.ID.String(), models.AuditActionCreate,
			fmt.Sprintf("Şube oluşturuldu: %s", b.Name), resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/branches/:id (admin)
func UpdateBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body BranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		b, err := svc.UpdateBranch(c.UserContext(), id,
			NewBranchInput(body.Name, body.CenterID, body.Manager, body.Phone, body.Email, body.Address))
		if err != nil {
			return err
		}

		resp := NewBranchResponse(b)
		writeAdminLog(svc, c, &b.ID, "branch", b.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Şube güncellendi: %s", b.Name), resp)
		return c.JSON(resp)
	}
}

// PUT /api/branches/:id/status
func SetBranchStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body StatusRequest
		if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_active zorunlu")
		}

		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		b, err := svc.SetBranchStatus(c.UserContext(), scope, id, *body.IsActive)
		if err != nil {
			return err
		}

		writeAdminLog(svc, c, &b.ID, "branch", b.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Şube durumu: %s -> %t", b.Name, b.IsActive), fiber.Map{"is_active": b.IsActive})
		return c.JSON(NewBranchResponse(b))
	}
}

// ----------------------------------------
// FİYAT FARKLARI
// ----------------------------------------

// PUT /api/branches/:id/price-adjustment
func SetPriceAdjustmentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body PriceAdjustmentRequest
		if err := c.BodyParser(&body); err != nil || body.Percent == nil {
			return fiber.NewError(fiber.StatusBadRequest, "percent zorunlu")
		}

		user, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		b, err := svc.SetPricePercent(c.UserContext(), scope, id, *body.Percent, actorFrom(user))
		if err != nil {
			return err
		}
		return c.JSON(NewBranchResponse(b))
	}
}

// GET /api/branches/:id/product-adjustments
func ListProductAdjustmentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		list, err := svc.ProductAdjustments(c.UserContext(), scope, id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// PUT /api/branches/:id/product-adjustments
func SetProductAdjustmentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body ProductAdjustmentsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		items := make([]ExtraInput, 0, len(body.Items))
		for _, it := range body.Items {
			if it.ExtraAmount == nil {
				return fiber.NewError(fiber.StatusBadRequest, "extra_amount zorunlu")
			}
			items = append(items, ExtraInput{ProductID: it.ProductID, ExtraAmount: *it.ExtraAmount})
		}

		return setProductAdjustments(svc, c, id, items)
	}
}

// PUT /api/branches/:id/product-adjustments/:productId
func SetProductAdjustmentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		productID, err := parseID(c, "productId")
		if err != nil {
			return err
		}

		var body ProductAdjustmentRequest
		if err := c.BodyParser(&body); err != nil || body.ExtraAmount == nil {
			return fiber.NewError(fiber.StatusBadRequest, "extra_amount zorunlu")
		}

		return setProductAdjustments(svc, c, id, []ExtraInput{{ProductID: productID, ExtraAmount: *body.ExtraAmount}})
	}
}

func setProductAdjustments(svc *Service, c *fiber.Ctx, branchID uuid.UUID, items []ExtraInput) error {
	user, scope, err := auth.ScopeFromCtx(c)
	if err != nil {
		return err
	}

	list, err := svc.SetProductAdjustments(c.UserContext(), scope, branchID, items, actorFrom(user))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
