// Package catalog ürün kataloğunu ve şube fiyat listesini yönetir.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	minNameLen     = 2
	maxNameLen     = 64
	maxImageRefLen = 1000
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List: Oluşturulma sırasıyla; activeOnly ise pasifler hariç
func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var products []models.Product
	if err := q.Order("created_at ASC").Order("code ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("ürünler listelenemedi: %w", err)
	}
	return products, nil
}

type CreateInput struct {
	Name      string
	Code      string // boşsa addan üretilir
	BasePrice decimal.Decimal
	ImageRef  string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	if !in.BasePrice.IsPositive() {
		return nil, apperr.Validation("Liste fiyatı sıfırdan büyük olmalı")
	}
	imageRef, err := validImageRef(in.ImageRef)
	if err != nil {
		return nil, err
	}

	source := in.Code
	if strings.TrimSpace(source) == "" {
		source = name
	}
	code := ProductCode(source)
	if len(code) < 2 || len(code) > 64 {
		return nil, apperr.Validation("Ürün kodu üretilemedi")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Product{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductExists.Withf("Bu ürün kodu zaten kullanılıyor: %s", code)
	}

	p := &models.Product{
		Code:      code,
		Name:      name,
		BasePrice: in.BasePrice.Round(2),
		ImageRef:  imageRef,
		IsActive:  true,
	}
	if err := db.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductExists.Withf("Bu ürün kodu zaten kullanılıyor: %s", code)
		}
		return nil, fmt.Errorf("ürün oluşturulamadı: %w", err)
	}
	return p, nil
}

// UpdateInput: Kod değiştirilemez. RemoveImage true ise görsel referansı silinir.
type UpdateInput struct {
	Name        *string
	BasePrice   *decimal.Decimal
	ImageRef    *string
	RemoveImage bool
}

// Update: Güncellenmiş ürünü ve değişiklik öncesi halini döner (audit için)
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (before, after *models.Product, err error) {
	updates := map[string]any{}

	if in.Name != nil {
		name, err := validName(*in.Name)
		if err != nil {
			return nil, nil, err
		}
		updates["name"] = name
	}
	if in.BasePrice != nil {
		if !in.BasePrice.IsPositive() {
			return nil, nil, apperr.Validation("Liste fiyatı sıfırdan büyük olmalı")
		}
		updates["base_price"] = in.BasePrice.Round(2)
	}
	switch {
	case in.RemoveImage:
		updates["image_ref"] = ""
	case in.ImageRef != nil:
		ref, err := validImageRef(*in.ImageRef)
		if err != nil {
			return nil, nil, err
		}
		updates["image_ref"] = ref
	}
	if len(updates) == 0 {
		return nil, nil, apperr.Validation("Güncellenecek alan yok")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := findProduct(tx, id)
		if err != nil {
			return err
		}
		before = cur

		if err := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("ürün güncellenemedi: %w", err)
		}
		after, err = findProduct(tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, active bool) (*models.Product, error) {
	var p *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", id).Update("is_active", active)
		if res.Error != nil {
			return fmt.Errorf("ürün durumu güncellenemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		var err error
		p, err = findProduct(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatusBulk: ids boşsa tüm ürünlere uygulanır; etkilenen satır sayısını döner
func (s *Service) SetStatusBulk(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	} else {
		q = q.Where("1 = 1")
	}

	res := q.Update("is_active", active)
	if res.Error != nil {
		return 0, fmt.Errorf("ürün durumları güncellenemedi: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete: Siparişlerde geçen ürün silinemez; şube fiyat farkları ürünle birlikte silinir.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var deleted *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, id)
		if err != nil {
			return err
		}

		var used int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used == 0 {
			if err := tx.Model(&models.OrderCarryover{}).Where("product_id = ?", id).Count(&used).Error; err != nil {
				return err
			}
		}
		if used > 0 {
			return ErrProductInUse
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.BranchProductAdjustment{}).Error; err != nil {
			return fmt.Errorf("ürün farkları silinemedi: %w", err)
		}
		if err := tx.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return ErrProductInUse
			}
			return fmt.Errorf("ürün silinemedi: %w", err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func findProduct(db *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func validName(v string) (string, error) {
	name := strings.TrimSpace(v)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return "", apperr.Validation(fmt.Sprintf("Ürün adı %d-%d karakter olmalı", minNameLen, maxNameLen))
	}
	return name, nil
}

func validImageRef(v string) (string, error) {
	ref := strings.TrimSpace(v)
	if len(ref) > maxImageRefLen {
		return "", apperr.Validation("Görsel referansı çok uzun")
	}
	return ref, nil
}
