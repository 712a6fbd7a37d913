package admin

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/auth"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultResetPassword: Yeni şifre verilmeden sıfırlamada kullanılır
const DefaultResetPassword = "12345678"

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Preload("Branch").Preload("Center").
		Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("kullanıcılar listelenemedi: %w", err)
	}
	return users, nil
}

type CreateUserInput struct {
	Email       string
	Phone       string
	Password    string
	Role        models.UserRole
	DisplayName string
	BranchID    *uuid.UUID
	CenterID    *uuid.UUID
	IsActive    *bool
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email, err := requiredEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("Geçersiz rol")
	}
	displayName, err := optionalText("Görünen ad", in.DisplayName, 120)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.CheckPassword(ctx, in.Password); err != nil {
		return nil, err
	}
	phone, err := normalizedPhone(in.Phone)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	branchID, centerID, err := roleRelations(db, in.Role, in.BranchID, in.CenterID)
	if err != nil {
		return nil, err
	}
	if err := ensureUnique(db, uuid.Nil, email, phone); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("şifre hashlenemedi: %w", err)
	}

	u := &models.User{
		Email:        email,
		Phone:        phone,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         in.Role,
		BranchID:     branchID,
		CenterID:     centerID,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := db.Omit(clause.Associations).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("kullanıcı oluşturulamadı: %w", err)
	}
	return s.getUser(db, u.ID)
}

// UpdateUserInput: Phone için boş string telefonu kaldırır. Rol değişince ilişkiler yeniden doğrulanır.
type UpdateUserInput struct {
	Email       *string
	Phone       *string
	Role        *models.UserRole
	DisplayName *string
	BranchID    *uuid.UUID
	CenterID    *uuid.UUID
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	db := s.db.WithContext(ctx)
	cur, err := s.getUser(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	email := cur.Email
	if in.Email != nil {
		if email, err = requiredEmail(*in.Email); err != nil {
			return nil, err
		}
		updates["email"] = email
	}

	var phone *string
	if in.Phone != nil {
		if phone, err = normalizedPhone(*in.Phone); err != nil {
			return nil, err
		}
		updates["phone"] = phone
	}

	if in.DisplayName != nil {
		name, err := optionalText("Görünen ad", *in.DisplayName, 120)
		if err != nil {
			return nil, err
		}
		updates["display_name"] = name
	}

	role := cur.Role
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperr.Validation("Geçersiz rol")
		}
		role = *in.Role
	}
	branchID, centerID := cur.BranchID, cur.CenterID
	if in.BranchID != nil {
		branchID = in.BranchID
	}
	if in.CenterID != nil {
		centerID = in.CenterID
	}
	branchID, centerID, err = roleRelations(db, role, branchID, centerID)
	if err != nil {
		return nil, err
	}
	updates["role"] = role
	updates["branch_id"] = branchID
	updates["center_id"] = centerID

	if err := ensureUnique(db, id, email, phone); err != nil {
		return nil, err
	}

	if err := db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("kullanıcı güncellenemedi: %w", err)
	}
	return s.getUser(db, id)
}

// SetUserStatus: Kullanıcı kendi hesabını pasife alamaz
func (s *Service) SetUserStatus(ctx context.Context, actorID, id uuid.UUID, active bool) (*models.User, error) {
	if actorID == id && !active {
		return nil, apperr.Validation("Kendi hesabınızı pasif yapamazsınız")
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return nil, fmt.Errorf("kullanıcı durumu güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.getUser(db, id)
}

// ResetPassword: newPassword boşsa varsayılan geçici şifre atanır; atanan şifre döner
func (s *Service) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) (string, error) {
	plain := newPassword
	if plain == "" {
		plain = DefaultResetPassword
	} else if err := s.passwords.CheckPassword(ctx, plain); err != nil {
		return "", err
	}

	hash, err := auth.HashPassword(plain)
	if err != nil {
		return "", fmt.Errorf("şifre hashlenemedi: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return "", fmt.Errorf("şifre güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrUserNotFound
	}
	return plain, nil
}

func (s *Service) getUser(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := db.Preload("Branch").Preload("Center").First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

// roleRelations: sube -> şube zorunlu, merkez -> merkez zorunlu, admin -> ilişkisiz.
// Rolün kullanmadığı ilişki temizlenir.
func roleRelations(db *gorm.DB, role models.UserRole, branchID, centerID *uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	switch role {
	case models.RoleBranch:
		if branchID == nil {
			return nil, nil, apperr.Validation("Şube kullanıcısı için şube seçilmeli")
		}
		var count int64
		if err := db.Model(&models.Branch{}).Where("id = ?", *branchID).Count(&count).Error; err != nil {
			return nil, nil, err
		}
		if count == 0 {
			return nil, nil, apperr.Validation("Şube bulunamadı")
		}
		return branchID, nil, nil
	case models.RoleCenter:
		if centerID == nil {
			return nil, nil, apperr.Validation("Merkez kullanıcısı için merkez seçilmeli")
		}
		if err := ensureCenter(db, *centerID); err != nil {
			return nil, nil, err
		}
		return nil, centerID, nil
	}
	return nil, nil, nil
}

func ensureUnique(db *gorm.DB, self uuid.UUID, email string, phone *string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, self).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailInUse
	}
	if phone == nil {
		return nil
	}
	if err := db.Model(&models.User{}).Where("phone = ? AND id <> ?", *phone, self).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPhoneInUse
	}
	return nil
}

func requiredEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", apperr.Validation("E-posta zorunlu")
	}
	if _, err := mail.ParseAddress(v); err != nil || len(v) > 120 {
		return "", apperr.Validation("Geçersiz e-posta adresi")
	}
	return v, nil
}

// normalizedPhone: Boşsa nil (telefon yok)
func normalizedPhone(v string) (*string, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	p := auth.NormalizePhone(v)
	if len(p) < 7 || len(p) > 15 {
		return nil, apperr.Validation("Geçersiz telefon numarası")
	}
	return &p, nil
}
