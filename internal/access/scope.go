// Package access rol bazlı görünürlük kurallarını tek yerde toplar.
//
// Scope kapalı bir tiptir: BranchScope, CenterScope veya AdminScope.
// Her entity için bir görünürlük fonksiyonu ve bir sorgu filtresi vardır; ikisi de tüm
// scope tiplerini açıkça ele alır.
package access

import (
	"fmt"

	"siparis-backend/internal/apperr"
	"siparis-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Scope interface {
	isScope()
}

// BranchScope: Şube kullanıcısı, sadece kendi şubesi
type BranchScope struct{ BranchID uuid.UUID }

// CenterScope: Merkez kullanıcısı, merkeze bağlı şubeler
type CenterScope struct{ CenterID uuid.UUID }

// AdminScope: Kısıtsız
type AdminScope struct{}

func (BranchScope) isScope() {}
func (CenterScope) isScope() {}
func (AdminScope) isScope()  {}

var ErrForbidden = apperr.New(apperr.KindForbidden, "FORBIDDEN", "Bu kayda erişim yetkiniz yok")

// ForUser kullanıcının rolünden scope üretir.
func ForUser(role models.UserRole, branchID, centerID *uuid.UUID) (Scope, error) {
	switch role {
	case models.RoleAdmin:
		return AdminScope{}, nil
	case models.RoleCenter:
		if centerID == nil {
			return nil, apperr.New(apperr.KindForbidden, "CENTER_REQUIRED", "Kullanıcı bir merkeze bağlı değil")
		}
		return CenterScope{CenterID: *centerID}, nil
	case models.RoleBranch:
		if branchID == nil {
			return nil, apperr.New(apperr.KindForbidden, "BRANCH_REQUIRED", "Kullanıcı bir şubeye bağlı değil")
		}
		return BranchScope{BranchID: *branchID}, nil
	}
	return nil, apperr.Forbidden(fmt.Sprintf("Bilinmeyen rol: %s", role))
}

// CanSeeBranch: Şube bu scope tarafından görülebilir mi?
func CanSeeBranch(s Scope, b *models.Branch) bool {
	switch s := s.(type) {
	case BranchScope:
		return b.ID == s.BranchID
	case CenterScope:
		return b.CenterID != nil && *b.CenterID == s.CenterID
	case AdminScope:
		return true
	}
	return false
}

// CanSeeOrder: Siparişin şubesi Branch alanında yüklü olmalı.
func CanSeeOrder(s Scope, o *models.Order) bool {
	switch s := s.(type) {
	case BranchScope:
		return o.BranchID == s.BranchID
	case CenterScope:
		return o.Branch != nil && CanSeeBranch(s, o.Branch)
	case AdminScope:
		return true
	}
	return false
}

// BranchFilter branches tablosu üzerindeki sorgulara scope uygular.
func BranchFilter(s Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s := s.(type) {
		case BranchScope:
			return db.Where("branches.id = ?", s.BranchID)
		case CenterScope:
			return db.Where("branches.center_id = ?", s.CenterID)
		case AdminScope:
			return db
		}
		return db.Where("1 = 0")
	}
}

// OrderFilter orders tablosu üzerindeki sorgulara scope uygular.
func OrderFilter(s Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s := s.(type) {
		case BranchScope:
			return db.Where("orders.branch_id = ?", s.BranchID)
		case CenterScope:
			return db.Where("orders.branch_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.Branch{}).Select("id").Where("center_id = ?", s.CenterID))
		case AdminScope:
			return db
		}
		return db.Where("1 = 0")
	}
}

// IsAdmin / IsBranch: handler'larda kısa kontroller için
func IsAdmin(s Scope) bool {
	_, ok := s.(AdminScope)
	return ok
}

func BranchOf(s Scope) (uuid.UUID, bool) {
	bs, ok := s.(BranchScope)
	return bs.BranchID, ok
}
