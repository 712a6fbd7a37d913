package admin

import (
	"fmt"

	"siparis-backend/internal/auth"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Password    string          `json:"password"`
	Role        models.UserRole `json:"role"`
	DisplayName string          `json:"display_name"`
	BranchID    *uuid.UUID      `json:"branch_id"`
	CenterID    *uuid.UUID      `json:"center_id"`
	IsActive    *bool           `json:"is_active"`
}

type UpdateUserRequest struct {
	Email       *string          `json:"email"`
	Phone       *string          `json:"phone"` // "" telefonu kaldırır
	Role        *models.UserRole `json:"role"`
	DisplayName *string          `json:"display_name"`
	BranchID    *uuid.UUID       `json:"branch_id"`
	CenterID    *uuid.UUID       `json:"center_id"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type AdminUserResponse struct {
	auth.UserResponse
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewAdminUserResponse(u *models.User) AdminUserResponse {
	return AdminUserResponse{
		UserResponse: auth.NewUserResponse(u),
		CreatedAt:    u.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    u.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/admin/users
func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.ListUsers(c.UserContext())
		if err != nil {
			return err
		}

		res := make([]AdminUserResponse, 0, len(users))
		for i := range users {
			res = append(res, NewAdminUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/users
func CreateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		u, err := svc.CreateUser(c.UserContext(), CreateUserInput{
			Email:       body.Email,
			Phone:       body.Phone,
			Password:    body.Password,
			Role:        body.Role,
			DisplayName: body.DisplayName,
			BranchID:    body.BranchID,
			CenterID:    body.CenterID,
			IsActive:    body.IsActive,
		})
		if err != nil {
			return err
		}

		resp := NewAdminUserResponse(u)
		writeAdminLog(svc, c, u.BranchID, "user", u.ID.String(), models.AuditActionCreate,
			fmt.Sprintf("Kullanıcı oluşturuldu: %s (%s)", u.Email, u.Role), resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		u, err := svc.UpdateUser(c.UserContext(), id, UpdateUserInput{
			Email:       body.Email,
			Phone:       body.Phone,
			Role:        body.Role,
			DisplayName: body.DisplayName,
			BranchID:    body.BranchID,
			CenterID:    body.CenterID,
		})
		if err != nil {
			return err
		}

		resp := NewAdminUserResponse(u)
		writeAdminLog(svc, c, u.BranchID, "user", u.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Kullanıcı güncellendi: %s", u.Email), resp)
		return c.JSON(resp)
	}
}

// PUT /api/admin/users/:id/status
func SetUserStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body StatusRequest
		if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_active zorunlu")
		}

		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		u, err := svc.SetUserStatus(c.UserContext(), actor.UserID, id, *body.IsActive)
		if err != nil {
			return err
		}

		writeAdminLog(svc, c, u.BranchID, "user", u.ID.String(), models.AuditActionUpdate,
			fmt.Sprintf("Kullanıcı durumu: %s -> %t", u.Email, u.IsActive), fiber.Map{"is_active": u.IsActive})
		return c.JSON(NewAdminUserResponse(u))
	}
}

// PUT /api/admin/users/:id/reset-password
// Geçici şifre sadece bu yanıtta bir kez döner
func ResetPasswordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		var body ResetPasswordRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
			}
		}

		plain, err := svc.ResetPassword(c.UserContext(), id, body.NewPassword)
		if err != nil {
			return err
		}

		writeAdminLog(svc, c, nil, "user", id.String(), models.AuditActionUpdate, "Kullanıcı şifresi sıfırlandı", nil)
		return c.JSON(fiber.Map{"id": id, "temp_password": plain})
	}
}
