package auth

import (
	"errors"
	"strings"

	"siparis-backend/internal/config"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	CtxIdentityKey = "identity"
	CtxUserRoleKey = "user_role"

	AccessCookieName = "access_token"
)

// JWTMiddleware: Token Authorization header'dan veya access_token cookie'sinden okunur.
// Kullanıcı her istekte yüklenir; pasif veya silinmiş kullanıcılar reddedilir.
func JWTMiddleware(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, err := tokenFromRequest(c)
		if err != nil {
			return err
		}

		_, userID, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı yetkili değil")
			}
			return err
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı yetkili değil")
		}

		c.Locals(CtxIdentityKey, identityFromUser(&user))
		c.Locals(CtxUserRoleKey, user.Role)

		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookie := c.Cookies(AccessCookieName); cookie != "" {
		return cookie, nil
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}
