package admin

import (
	"context"
	"fmt"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// CenterWithCount: Liste ekranı için kullanıcı ve şube sayısıyla birlikte
type CenterWithCount struct {
	models.Center
	UserCount   int64
	BranchCount int64
}

func (s *Service) ListCenters(ctx context.Context) ([]CenterWithCount, error) {
	db := s.db.WithContext(ctx)

	var centers []models.Center
	if err := db.Order("created_at ASC").Find(&centers).Error; err != nil {
		return nil, fmt.Errorf("merkezler listelenemedi: %w", err)
	}

	type countRow struct {
		CenterID uuid.UUID
		N        int64
	}
	var users, branches []countRow
	if err := db.Model(&models.User{}).Select("center_id, COUNT(*) AS n").
		Where("center_id IS NOT NULL").Group("center_id").Scan(&users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Branch{}).Select("center_id, COUNT(*) AS n").
		Where("center_id IS NOT NULL").Group("center_id").Scan(&branches).Error; err != nil {
		return nil, err
	}
	userCount := make(map[uuid.UUID]int64, len(users))
	for _, r := range users {
		userCount[r.CenterID] = r.N
	}
	branchCount := make(map[uuid.UUID]int64, len(branches))
	for _, r := range branches {
		branchCount[r.CenterID] = r.N
	}

	out := make([]CenterWithCount, 0, len(centers))
	for _, c := range centers {
		out = append(out, CenterWithCount{Center: c, UserCount: userCount[c.ID], BranchCount: branchCount[c.ID]})
	}
	return out, nil
}

type CenterInput struct {
	Name *string
	contactInput
}

func NewCenterInput(name, manager, phone, email, address *string) CenterInput {
	return CenterInput{
		Name:         name,
		contactInput: contactInput{Manager: manager, Phone: phone, Email: email, Address: address},
	}
}

func (s *Service) CreateCenter(ctx context.Context, in CenterInput) (*models.Center, error) {
	if in.Name == nil {
		return nil, apperr.Validation("Merkez adı zorunlu")
	}
	name, err := requiredText("Merkez adı", *in.Name, 2, 120)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := in.contactInput.updates(fields); err != nil {
		return nil, err
	}

	c := &models.Center{Name: name, IsActive: true}
	c.Manager, _ = fields["manager"].(string)
	c.Phone, _ = fields["phone"].(string)
	c.Email, _ = fields["email"].(string)
	c.Address, _ = fields["address"].(string)

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, fmt.Errorf("merkez oluşturulamadı: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateCenter(ctx context.Context, id uuid.UUID, in CenterInput) (*models.Center, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name, err := requiredText("Merkez adı", *in.Name, 2, 120)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if err := in.contactInput.updates(updates); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("Güncellenecek alan yok")
	}
	return s.updateCenter(ctx, id, updates)
}

func (s *Service) SetCenterStatus(ctx context.Context, id uuid.UUID, active bool) (*models.Center, error) {
	return s.updateCenter(ctx, id, map[string]any{"is_active": active})
}

func (s *Service) updateCenter(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Center, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Center{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("merkez güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrCenterNotFound
	}

	var c models.Center
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrCenterNotFound)
	}
	return &c, nil
}
