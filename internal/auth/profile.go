package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailInUse      = apperr.New(apperr.KindConflict, "EMAIL_IN_USE", "Bu e-posta başka bir kullanıcı tarafından kullanılıyor")
	ErrCurrentPassword = apperr.New(apperr.KindAuth, "INVALID_CREDENTIALS", "Mevcut şifre hatalı")
)

// PasswordPolicy: Yeni şifre kuralları (sistem ayarlarından)
type PasswordPolicy interface {
	CheckPassword(ctx context.Context, password string) error
}

type BranchProfile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Manager  string    `json:"manager"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email"`
	Address  string    `json:"address"`
	IsActive bool      `json:"is_active"`
}

type ProfileResponse struct {
	User   UserResponse   `json:"user"`
	Branch *BranchProfile `json:"branch"`
}

func newProfileResponse(u *models.User) ProfileResponse {
	resp := ProfileResponse{User: NewUserResponse(u)}
	if b := u.Branch; b != nil {
		resp.Branch = &BranchProfile{
			ID:       b.ID,
			Name:     b.Name,
			Manager:  b.Manager,
			Phone:    b.Phone,
			Email:    b.Email,
			Address:  b.Address,
			IsActive: b.IsActive,
		}
	}
	return resp
}

// UpdateProfileRequest: nil alanlar değişmez. Şube alanlarını yalnızca şube kullanıcısı değiştirebilir.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	BranchName  *string `json:"branch_name"`
	Manager     *string `json:"manager"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func loadProfile(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Preload("Branch").Preload("Center").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı")
		}
		return nil, err
	}
	return &user, nil
}

func textField(field, v string, lo, hi int) (string, error) {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n < lo || n > hi {
		return "", apperr.Validation(field + " uzunluğu geçersiz")
	}
	return v, nil
}

// updates: Kullanıcı ve şube için doğrulanmış kolon değerleri
func (r UpdateProfileRequest) updates(canEditBranch bool) (map[string]any, map[string]any, error) {
	user := map[string]any{}
	branch := map[string]any{}

	if r.DisplayName != nil {
		v, err := textField("Görünen ad", *r.DisplayName, 2, 120)
		if err != nil {
			return nil, nil, err
		}
		user["display_name"] = v
	}
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		if _, err := mail.ParseAddress(v); err != nil || len(v) > 120 {
			return nil, nil, apperr.Validation("Geçersiz e-posta adresi")
		}
		user["email"] = v
		if canEditBranch {
			branch["email"] = v
		}
	}
	if !canEditBranch {
		return user, branch, nil
	}

	fields := []struct {
		val      *string
		column   string
		label    string
		min, max int
	}{
		{r.BranchName, "name", "Şube adı", 2, 120},
		{r.Manager, "manager", "Yetkili", 2, 120},
		{r.Phone, "phone", "Telefon", 5, 40},
		{r.Address, "address", "Adres", 0, 500},
	}
	for _, f := range fields {
		if f.val == nil {
			continue
		}
		v, err := textField(f.label, *f.val, f.min, f.max)
		if err != nil {
			return nil, nil, err
		}
		branch[f.column] = v
	}
	return user, branch, nil
}

// GET /api/profile/me
func ProfileHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		user, err := loadProfile(db.WithContext(c.UserContext()), id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(newProfileResponse(user))
	}
}

// PUT /api/profile/me
func UpdateProfileHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		canEditBranch := id.Role == models.RoleBranch && id.BranchID != nil
		userCols, branchCols, err := body.updates(canEditBranch)
		if err != nil {
			return err
		}

		conn := db.WithContext(c.UserContext())
		err = conn.Transaction(func(tx *gorm.DB) error {
			if len(userCols) > 0 {
				if err := tx.Model(&models.User{}).Where("id = ?", id.UserID).Updates(userCols).Error; err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return ErrEmailInUse
					}
					return err
				}
			}
			if len(branchCols) > 0 {
				if err := tx.Model(&models.Branch{}).Where("id = ?", *id.BranchID).Updates(branchCols).Error; err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return apperr.New(apperr.KindConflict, "BRANCH_NAME_IN_USE", "Bu şube adı zaten kullanılıyor")
					}
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		user, err := loadProfile(conn, id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(newProfileResponse(user))
	}
}

// PUT /api/profile/password
func ChangePasswordHandler(db *gorm.DB, policy PasswordPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.CurrentPassword == "" || body.NewPassword == "" {
			return apperr.Validation("Mevcut ve yeni şifre zorunlu")
		}
		if len(body.NewPassword) > 128 {
			return apperr.Validation("Şifre en fazla 128 karakter olabilir")
		}
		if policy != nil {
			if err := policy.CheckPassword(c.UserContext(), body.NewPassword); err != nil {
				return err
			}
		}

		conn := db.WithContext(c.UserContext())
		var user models.User
		if err := conn.First(&user, "id = ?", id.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı")
		}
		if !CheckPassword(user.PasswordHash, body.CurrentPassword) {
			return ErrCurrentPassword
		}

		hash, err := HashPassword(body.NewPassword)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre oluşturulamadı")
		}
		if err := conn.Model(&user).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"updated": true})
	}
}
