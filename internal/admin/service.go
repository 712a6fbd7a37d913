// Package admin şube, merkez ve kullanıcı yönetimini içerir.
package admin

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"siparis-backend/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBranchNotFound = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Şube bulunamadı")
	ErrBranchExists   = apperr.New(apperr.KindConflict, "BRANCH_EXISTS", "Bu isimde bir şube zaten var")
	ErrCenterNotFound = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Merkez bulunamadı")
	ErrUserNotFound   = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Kullanıcı bulunamadı")
	ErrEmailInUse     = apperr.New(apperr.KindConflict, "EMAIL_IN_USE", "Bu e-posta zaten kullanılıyor")
	ErrPhoneInUse     = apperr.New(apperr.KindConflict, "PHONE_IN_USE", "Bu telefon numarası zaten kullanılıyor")
)

// PasswordChecker: Sistem ayarlarındaki şifre kuralı
type PasswordChecker interface {
	CheckPassword(ctx context.Context, password string) error
}

// Actor: Değişikliği yapan kullanıcı (audit için)
type Actor struct {
	ID   uuid.UUID
	Name string
}

type Service struct {
	db        *gorm.DB
	passwords PasswordChecker
}

func NewService(db *gorm.DB, passwords PasswordChecker) *Service {
	return &Service{db: db, passwords: passwords}
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func requiredText(field, v string, min, max int) (string, error) {
	v = strings.TrimSpace(v)
	if n := utf8.RuneCountInString(v); n < min || n > max {
		return "", apperr.Validation(field + " uzunluğu geçersiz")
	}
	return v, nil
}

func optionalText(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > max {
		return "", apperr.Validation(field + " çok uzun")
	}
	return v, nil
}

// optionalEmail: Boş bırakılabilir; doluysa geçerli adres olmalı
func optionalEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(v); err != nil || len(v) > 120 {
		return "", apperr.Validation("Geçersiz e-posta adresi")
	}
	return v, nil
}

// contactInput: Şube ve merkezde ortak iletişim alanları
type contactInput struct {
	Manager *string
	Phone   *string
	Email   *string
	Address *string
}

func (in contactInput) updates(into map[string]any) error {
	if in.Manager != nil {
		v, err := optionalText("Yetkili", *in.Manager, 120)
		if err != nil {
			return err
		}
		into["manager"] = v
	}
	if in.Phone != nil {
		v, err := optionalText("Telefon", *in.Phone, 40)
		if err != nil {
			return err
		}
		into["phone"] = v
	}
	if in.Email != nil {
		v, err := optionalEmail(*in.Email)
		if err != nil {
			return err
		}
		into["email"] = v
	}
	if in.Address != nil {
		v, err := optionalText("Adres", *in.Address, 500)
		if err != nil {
			return err
		}
		into["address"] = v
	}
	return nil
}
