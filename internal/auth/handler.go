package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/config"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindAuth, "INVALID_CREDENTIALS", "Email/telefon veya şifre hatalı")
	ErrUserInactive       = apperr.New(apperr.KindForbidden, "USER_INACTIVE", "Kullanıcı hesabı pasif")
)

type LoginRequest struct {
	EmailOrPhone string `json:"email_or_phone"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// LoginIdentifier: email_or_phone boşsa email kullanılır
func (r LoginRequest) LoginIdentifier() string {
	if v := strings.TrimSpace(r.EmailOrPhone); v != "" {
		return v
	}
	return strings.TrimSpace(r.Email)
}

type UserResponse struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Phone       *string         `json:"phone"`
	DisplayName string          `json:"display_name"`
	Role        models.UserRole `json:"role"`
	BranchID    *uuid.UUID      `json:"branch_id"`
	BranchName  *string         `json:"branch_name"`
	CenterID    *uuid.UUID      `json:"center_id"`
	CenterName  *string         `json:"center_name"`
	IsActive    bool            `json:"is_active"`
}

// NewUserResponse: Branch/Center preload edilmişse isimleri de döner
func NewUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Phone:       u.Phone,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		BranchID:    u.BranchID,
		CenterID:    u.CenterID,
		IsActive:    u.IsActive,
	}
	if u.Branch != nil {
		resp.BranchName = &u.Branch.Name
	}
	if u.Center != nil {
		resp.CenterName = &u.Center.Name
	}
	return resp
}

// Authenticate: Email veya telefon + şifre ile kullanıcıyı doğrular
func Authenticate(db *gorm.DB, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || len(password) < 6 {
		return nil, apperr.Validation("Email/telefon ve şifre zorunlu")
	}

	q := db.Preload("Branch").Preload("Center")
	lowered := strings.ToLower(identifier)

	var user models.User
	var err error
	switch {
	case strings.Contains(lowered, "@"):
		err = q.Where("email = ?", lowered).First(&user).Error
	case LooksLikePhone(identifier):
		err = q.Where("phone = ?", NormalizePhone(identifier)).First(&user).Error
	default:
		return nil, apperr.Validation("Giriş için geçerli e-posta veya telefon numarası girin")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// TokenLifetime: Sistem ayarlarındaki oturum süresi (0 dönerse config kullanılır)
type TokenLifetime interface {
	AccessTokenTTL(ctx context.Context) time.Duration
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, db *gorm.DB, lifetime TokenLifetime) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		user, err := Authenticate(db.WithContext(c.UserContext()), body.LoginIdentifier(), body.Password)
		if err != nil {
			return err
		}

		ttl := cfg.AccessTokenTTL()
		if lifetime != nil {
			if d := lifetime.AccessTokenTTL(c.UserContext()); d > 0 {
				ttl = d
			}
		}
		token, err := GenerateToken(cfg.JWTSecret, user, ttl)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		c.Cookie(accessCookie(cfg, token, time.Now().Add(ttl)))

		return c.JSON(fiber.Map{
			"token": token,
			"user":  NewUserResponse(user),
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(accessCookie(cfg, "", time.Unix(0, 0)))
		return c.JSON(fiber.Map{"logged_out": true})
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).
			Preload("Branch").Preload("Center").
			First(&user, "id = ?", id.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı")
		}

		return c.JSON(NewUserResponse(&user))
	}
}

func accessCookie(cfg *config.Config, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     AccessCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
