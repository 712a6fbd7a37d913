package admin

import (
	"context"
	"errors"
	"fmt"

	"siparis-backend/internal/access"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/audit"
	"siparis-backend/internal/catalog"
	"siparis-backend/internal/models"
	"siparis-backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListBranches: İsme göre; yüzde farkı ve kullanıcılar yüklü gelir
func (s *Service) ListBranches(ctx context.Context, scope access.Scope) ([]models.Branch, error) {
	var branches []models.Branch
	err := s.db.WithContext(ctx).
		Scopes(access.BranchFilter(scope)).
		Preload("PriceAdjustment").
		Preload("Users", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Center").
		Order("branches.name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, fmt.Errorf("şubeler listelenemedi: %w", err)
	}
	return branches, nil
}

type BranchInput struct {
	Name     *string
	CenterID *uuid.UUID
	contactInput
}

func NewBranchInput(name *string, centerID *uuid.UUID, manager, phone, email, address *string) BranchInput {
	return BranchInput{
		Name:         name,
		CenterID:     centerID,
		contactInput: contactInput{Manager: manager, Phone: phone, Email: email, Address: address},
	}
}

func (s *Service) CreateBranch(ctx context.Context, in BranchInput) (*models.Branch, error) {
	if in.Name == nil {
		return nil, apperr.Validation("Şube adı zorunlu")
	}
	fields := map[string]any{}
	if err := in.contactInput.updates(fields); err != nil {
		return nil, err
	}
	name, err := requiredText("Şube adı", *in.Name, 2, 120)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if in.CenterID != nil {
		if err := ensureCenter(db, *in.CenterID); err != nil {
			return nil, err
		}
	}

	b := &models.Branch{Name: name, CenterID: in.CenterID, IsActive: true}
	b.Manager, _ = fields["manager"].(string)
	b.Phone, _ = fields["phone"].(string)
	b.Email, _ = fields["email"].(string)
	b.Address, _ = fields["address"].(string)

	if err := db.Omit(clause.Associations).Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBranchExists
		}
		return nil, fmt.Errorf("şube oluşturulamadı: %w", err)
	}
	return s.getBranch(db, b.ID)
}

func (s *Service) UpdateBranch(ctx context.Context, id uuid.UUID, in BranchInput) (*models.Branch, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name, err := requiredText("Şube adı", *in.Name, 2, 120)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if err := in.contactInput.updates(updates); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if in.CenterID != nil {
		if err := ensureCenter(db, *in.CenterID); err != nil {
			return nil, err
		}
		updates["center_id"] = *in.CenterID
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("Güncellenecek alan yok")
	}

	res := db.Model(&models.Branch{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrBranchExists
		}
		return nil, fmt.Errorf("şube güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrBranchNotFound
	}
	return s.getBranch(db, id)
}

// SetBranchStatus: Merkez sadece kendi şubelerini değiştirebilir
func (s *Service) SetBranchStatus(ctx context.Context, scope access.Scope, id uuid.UUID, active bool) (*models.Branch, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.visibleBranch(db, scope, id); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Branch{}).Where("id = ?", id).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("şube durumu güncellenemedi: %w", err)
	}
	return s.getBranch(db, id)
}

// SetPricePercent: Yüzde farkını upsert eder, audit log aynı transaction'da yazılır
func (s *Service) SetPricePercent(ctx context.Context, scope access.Scope, id uuid.UUID, percent decimal.Decimal, actor Actor) (*models.Branch, error) {
	if !pricing.PercentInRange(percent) {
		return nil, apperr.Validation(fmt.Sprintf("Yüzde %s ile %s arasında olmalı", pricing.MinPercent, pricing.MaxPercent))
	}
	percent = pricing.ClampPercent(percent.Round(2))

	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		branch, err := s.visibleBranch(tx, scope, id)
		if err != nil {
			return err
		}

		before := decimal.Zero
		var cur models.BranchPriceAdjustment
		switch err := tx.Where("branch_id = ?", id).First(&cur).Error; {
		case err == nil:
			before = cur.Percent
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		row := models.BranchPriceAdjustment{BranchID: id, Percent: percent, UpdatedBy: &actor.ID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_by", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("yüzde farkı kaydedilemedi: %w", err)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			BranchID:    &id,
			UserID:      &actor.ID,
			UserName:    actor.Name,
			EntityType:  "branch_price_adjustment",
			EntityID:    id.String(),
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s fiyat farkı: %%%s -> %%%s", branch.Name, before.String(), percent.String()),
			Before:      map[string]any{"percent": before},
			After:       map[string]any{"percent": percent},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.getBranch(db, id)
}

// ProductAdjustments: Şubenin ürün bazlı farkları ve sonuç fiyatları
func (s *Service) ProductAdjustments(ctx context.Context, scope access.Scope, id uuid.UUID) (*catalog.PriceList, error) {
	db := s.db.WithContext(ctx)
	branch, err := s.visibleBranch(db, scope, id)
	if err != nil {
		return nil, err
	}
	return catalog.BuildPriceList(db, branch)
}

type ExtraInput struct {
	ProductID   uuid.UUID
	ExtraAmount decimal.Decimal
}

// SetProductAdjustments: Tüm satırlar tek transaction'da; sıfıra yakın farklar kaydı siler.
// Aynı ürün iki kez gönderilirse istek reddedilir.
func (s *Service) SetProductAdjustments(ctx context.Context, scope access.Scope, id uuid.UUID, items []ExtraInput, actor Actor) (*catalog.PriceList, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("En az bir ürün farkı gönderilmeli")
	}
	seen := make(map[uuid.UUID]bool, len(items))
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			return nil, apperr.Validation("Aynı ürün birden fazla gönderildi")
		}
		if !pricing.ExtraAmountInRange(it.ExtraAmount) {
			return nil, apperr.Validation(fmt.Sprintf("Ürün farkı %s ile %s arasında olmalı", pricing.MinExtraAmount, pricing.MaxExtraAmount))
		}
		seen[it.ProductID] = true
		productIDs = append(productIDs, it.ProductID)
	}

	db := s.db.WithContext(ctx)
	var branch *models.Branch
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		branch, err = s.visibleBranch(tx, scope, id)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Product{}).Where("id IN ?", productIDs).Count(&count).Error; err != nil {
			return err
		}
		if int(count) != len(productIDs) {
			return apperr.New(apperr.KindValidation, "PRODUCT_NOT_FOUND", "Ürün bulunamadı")
		}

		pc, err := pricing.LoadBranchContext(tx, id)
		if err != nil {
			return err
		}

		before := map[string]decimal.Decimal{}
		after := map[string]decimal.Decimal{}
		for _, it := range items {
			amount := pricing.ClampExtraAmount(it.ExtraAmount.Round(2))
			key := it.ProductID.String()
			before[key] = pc.ExtraFor(it.ProductID)

			if pricing.IsZeroExtra(amount) {
				if err := tx.Where("branch_id = ? AND product_id = ?", id, it.ProductID).
					Delete(&models.BranchProductAdjustment{}).Error; err != nil {
					return fmt.Errorf("ürün farkı silinemedi: %w", err)
				}
				after[key] = decimal.Zero
				continue
			}

			row := models.BranchProductAdjustment{BranchID: id, ProductID: it.ProductID, ExtraAmount: amount, UpdatedBy: &actor.ID}
			if err := tx.Omit("Branch", "Product").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "branch_id"}, {Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"extra_amount", "updated_by", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("ürün farkı kaydedilemedi: %w", err)
			}
			after[key] = amount
		}

		return audit.WriteLog(tx, audit.LogOptions{
			BranchID:    &id,
			UserID:      &actor.ID,
			UserName:    actor.Name,
			EntityType:  "branch_product_adjustment",
			EntityID:    id.String(),
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s ürün farkları güncellendi (%d ürün)", branch.Name, len(items)),
			Before:      before,
			After:       after,
		})
	})
	if err != nil {
		return nil, err
	}
	return catalog.BuildPriceList(db, branch)
}

// visibleBranch: Yoksa NOT_FOUND, scope dışındaysa FORBIDDEN
func (s *Service) visibleBranch(db *gorm.DB, scope access.Scope, id uuid.UUID) (*models.Branch, error) {
	var b models.Branch
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	if !access.CanSeeBranch(scope, &b) {
		return nil, access.ErrForbidden
	}
	return &b, nil
}

func (s *Service) getBranch(db *gorm.DB, id uuid.UUID) (*models.Branch, error) {
	var b models.Branch
	err := db.Preload("PriceAdjustment").Preload("Users").Preload("Center").First(&b, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	return &b, nil
}

func ensureCenter(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Center{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.Validation("Merkez bulunamadı")
	}
	return nil
}
