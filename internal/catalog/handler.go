package catalog

import (
	"fmt"

	"siparis-backend/internal/audit"
	"siparis-backend/internal/auth"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	ImageRef  string          `json:"image_ref"`
	IsActive  bool            `json:"is_active"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		BasePrice: p.BasePrice,
		ImageRef:  p.ImageRef,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

type CreateProductRequest struct {
	Name      string          `json:"name"`
	Code      string          `json:"code"` // Opsiyonel
	BasePrice decimal.Decimal `json:"base_price"`
	ImageRef  string          `json:"image_ref"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	ImageRef    *string          `json:"image_ref"`
	RemoveImage bool             `json:"remove_image"`
}

type StatusRequest struct {
	IsActive *bool `json:"is_active"`
}

type BulkStatusRequest struct {
	IDs      []uuid.UUID `json:"ids"` // boşsa tüm ürünler
	IsActive *bool       `json:"is_active"`
}

func productSnapshot(p *models.Product) fiber.Map {
	return fiber.Map{
		"code":       p.Code,
		"name":       p.Name,
		"base_price": p.BasePrice,
		"image_ref":  p.ImageRef,
		"is_active":  p.IsActive,
	}
}

func writeProductLog(svc *Service, c *fiber.Ctx, entityID string, action models.AuditAction, description string, before, after any) {
	id, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(svc.db.WithContext(c.UserContext()), audit.LogOptions{
		UserID:      &id.UserID,
		UserName:    id.Name,
		EntityType:  "product",
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
}

func productID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
	}
	return id, nil
}

// GET /api/products?active=true
func ListProductsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := svc.List(c.UserContext(), c.QueryBool("active", false))
		if err != nil {
			return err
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, NewProductResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/products
func CreateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		p, err := svc.Create(c.UserContext(), CreateInput{
			Name:      body.Name,
			Code:      body.Code,
			BasePrice: body.BasePrice,
			ImageRef:  body.ImageRef,
		})
		if err != nil {
			return err
		}

		writeProductLog(svc, c, p.ID.String(), models.AuditActionCreate,
			fmt.Sprintf("Ürün oluşturuldu: %s (%s TL)", p.Name, p.BasePrice.StringFixed(2)), nil, productSnapshot(p))

		return c.Status(fiber.StatusCreated).JSON(NewProductResponse(p))
	}
}

// PUT /api/products/:id
func UpdateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := productID(c)
		if err != nil {
			return err
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before, after, err := svc.Update(c.UserContext(), id, UpdateInput{
			Name:        body.Name,
			BasePrice:   body.BasePrice,
			ImageRef:    body.ImageRef,
			RemoveImage: body.RemoveImage,
		})
		if err != nil {
			return err
		}

		writeProductLog(svc, c, after.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Ürün güncellendi: %s", after.Name), productSnapshot(before), productSnapshot(after))

		return c.JSON(NewProductResponse(after))
	}
}

// PUT /api/products/:id/status
func SetProductStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := productID(c)
		if err != nil {
			return err
		}

		var body StatusRequest
		if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_active zorunlu")
		}

		p, err := svc.SetStatus(c.UserContext(), id, *body.IsActive)
		if err != nil {
			return err
		}

		writeProductLog(svc, c, p.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Ürün durumu: %s -> %s", p.Name, statusLabel(p.IsActive)), nil, productSnapshot(p))

		return c.JSON(NewProductResponse(p))
	}
}

// PUT /api/products/status-bulk
func SetProductStatusBulkHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkStatusRequest
		if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_active zorunlu")
		}

		n, err := svc.SetStatusBulk(c.UserContext(), body.IDs, *body.IsActive)
		if err != nil {
			return err
		}

		writeProductLog(svc, c, "bulk", models.AuditActionUpdate,
			fmt.Sprintf("Toplu ürün durumu: %d ürün -> %s", n, statusLabel(*body.IsActive)), nil, fiber.Map{"ids": body.IDs, "is_active": *body.IsActive})

		return c.JSON(fiber.Map{"affected_rows": n})
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := productID(c)
		if err != nil {
			return err
		}

		p, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		writeProductLog(svc, c, p.ID.String(), models.AuditActionDelete,
			fmt.Sprintf("Ürün silindi: %s", p.Name), productSnapshot(p), nil)

		return c.JSON(fiber.Map{"id": p.ID})
	}
}

// GET /api/branches/my-context?branch_id=...
func MyContextHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, scope, err := auth.ScopeFromCtx(c)
		if err != nil {
			return err
		}

		var branchID *uuid.UUID
		if v := c.Query("branch_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz branch_id")
			}
			branchID = &id
		}

		list, err := svc.PriceListFor(c.UserContext(), scope, branchID)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

func statusLabel(active bool) string {
	if active {
		return "aktif"
	}
	return "pasif"
}
