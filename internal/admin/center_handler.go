package admin

import (
	"fmt"

	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CenterResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Manager     string    `json:"manager"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	IsActive    bool      `json:"is_active"`
	UserCount   int64     `json:"user_count"`
	BranchCount int64     `json:"branch_count"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

type CenterRequest struct {
	Name    *string `json:"name"`
	Manager *string `json:"manager"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

func NewCenterResponse(c *models.Center) CenterResponse {
	return CenterResponse{
		ID:        c.ID,
		Name:      c.Name,
		Manager:   c.Manager,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/centers
func ListCentersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		centers, err := svc.ListCenters(c.UserContext())
		if err != nil {
			return err
		}

		res := make([]CenterResponse, 0, len(centers))
		for i := range centers {
			r := NewCenterResponse(&centers[i].Center)
			r.UserCount = centers[i].UserCount
			r.BranchCount = centers[i].BranchCount
			res = append(res, r)
		}
		return c.JSON(res)
	}
}

// POST /api/centers
func CreateCenterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CenterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		center, err := svc.CreateCenter(c.UserContext(),
			NewCenterInput(body.Name, body.Manager, body.Phone, body.Email, body.Address))
		if err != nil {
			return err
		}

		resp := NewCenterResponse(center)
		writeAdminLog(svc, c, nil, "center", center.ID.String(), models.AuditActionCreate,
			fmt.Sprintf("Merkez oluşturuldu: %s", center.Name), resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/centers/:id
func UpdateCenterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body CenterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		center, err := svc.UpdateCenter(c.UserContext(), id,
			NewCenterInput(body.Name, body.Manager, body.Phone, body.Email, body.Address))
		if err != nil {
			return err
		}

		resp := NewCenterResponse(center)
		writeAdminLog(svc, c, nil, "center", center.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Merkez güncellendi: %s", center.Name), resp)
		return c.JSON(resp)
	}
}

// PUT /api/centers/:id/status
func SetCenterStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body StatusRequest
		if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_active zorunlu")
		}

		center, err := svc.SetCenterStatus(c.UserContext(), id, *body.IsActive)
		if err != nil {
			return err
		}

		writeAdminLog(svc, c, nil, "center", center.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Merkez durumu: %s -> %t", center.Name, center.IsActive), fiber.Map{"is_active": center.IsActive})
		return c.JSON(NewCenterResponse(center))
	}
}
