package auth

import (
	"siparis-backend/internal/access"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Identity: Middleware'in her istekte veritabanından yüklediği güncel kullanıcı bilgisi
type Identity struct {
	UserID   uuid.UUID
	Name     string
	Email    string
	Role     models.UserRole
	BranchID *uuid.UUID
	CenterID *uuid.UUID
}

func identityFromUser(u *models.User) *Identity {
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return &Identity{
		UserID:   u.ID,
		Name:     name,
		Email:    u.Email,
		Role:     u.Role,
		BranchID: u.BranchID,
		CenterID: u.CenterID,
	}
}

func (i *Identity) Scope() (access.Scope, error) {
	return access.ForUser(i.Role, i.BranchID, i.CenterID)
}

// CurrentUser: JWTMiddleware sonrası çağrılmalı
func CurrentUser(c *fiber.Ctx) (*Identity, error) {
	id, ok := c.Locals(CtxIdentityKey).(*Identity)
	if !ok || id == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bilgisi alınamadı")
	}
	return id, nil
}

// ScopeFromCtx: Kullanıcı + görünürlük kapsamı
func ScopeFromCtx(c *fiber.Ctx) (*Identity, access.Scope, error) {
	id, err := CurrentUser(c)
	if err != nil {
		return nil, nil, err
	}
	scope, err := id.Scope()
	if err != nil {
		return nil, nil, err
	}
	return id, scope, nil
}
