// Seed: Demo merkez, şube, ürün ve kullanıcıları oluşturur. Tekrar çalıştırılabilir.
package main

import (
	"fmt"
	"log"

	"siparis-backend/internal/auth"
	"siparis-backend/internal/config"
	"siparis-backend/internal/database"
	"siparis-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedPassword = "12345678"

type seedProduct struct {
	Code      string
	Name      string
	BasePrice int64
}

var products = []seedProduct{
	{"su_boregi", "Su Boregi", 700},
	{"peynirli_borek", "Peynirli Borek", 650},
	{"kiymali_borek", "Kiymali Borek", 730},
	{"patatesli_borek", "Patatesli Borek", 610},
	{"ispanakli_borek", "Ispanakli Borek", 640},
	{"kasarli_borek", "Kasarli Borek", 680},
	{"kol_boregi", "Kol Boregi", 760},
	{"karisik_borek", "Karisik Borek", 790},
	{"biberli_ekmek", "Biberli Ekmek", 1150},
}

func main() {
	cfg := config.Load()
	database.Init(cfg)

	if err := database.DB.Transaction(seed); err != nil {
		log.Fatalf("Seed hatası: %v", err)
	}
	log.Printf("Seed tamamlandı. Tüm kullanıcıların şifresi: %s", seedPassword)
}

func seed(tx *gorm.DB) error {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return err
	}

	centers := make([]*models.Center, 2)
	for i := range centers {
		no := fmt.Sprintf("%02d", i+1)
		c, err := ensureCenter(tx, models.Center{
			Name:    "Borekci Merkez " + no,
			Manager: "Merkez Yetkilisi " + no,
			Phone:   fmt.Sprintf("0555 200 %s %s", no, no),
			Email:   fmt.Sprintf("merkez%s@borekci.com", no),
			Address: fmt.Sprintf("Ornek Mah. Uretim Cad. No:%d", i+1),
		})
		if err != nil {
			return err
		}
		centers[i] = c
	}

	// 01-05 birinci merkeze, 06-10 ikinci merkeze bağlı
	branches := make([]*models.Branch, 10)
	for i := range branches {
		no := fmt.Sprintf("%02d", i+1)
		b, err := ensureBranch(tx, models.Branch{
			Name:     "Borekci Sube " + no,
			CenterID: &centers[i/5].ID,
			Manager:  "Yetkili " + no,
			Phone:    fmt.Sprintf("0555 100 %s %s", no, no),
			Email:    fmt.Sprintf("sube%s@ornek.com", no),
			Address:  fmt.Sprintf("Ornek Mah. Borek Sok. No:%d", i+1),
		})
		if err != nil {
			return err
		}
		branches[i] = b

		adj := models.BranchPriceAdjustment{BranchID: b.ID, Percent: decimal.Zero}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_at"}),
		}).Create(&adj).Error; err != nil {
			return fmt.Errorf("fiyat farkı: %w", err)
		}
	}

	for _, p := range products {
		row := models.Product{Code: p.Code, Name: p.Name, BasePrice: decimal.NewFromInt(p.BasePrice), IsActive: true}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "base_price", "is_active", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("ürün %s: %w", p.Code, err)
		}
	}

	users := []models.User{
		{Email: "admin@borekci.com", Phone: phone("905551110000"), DisplayName: "Admin Kullanici", Role: models.RoleAdmin},
		{Email: "merkez@borekci.com", Phone: phone("905551110001"), DisplayName: "Merkez 01", Role: models.RoleCenter, CenterID: &centers[0].ID},
		{Email: "merkez2@borekci.com", Phone: phone("905551110002"), DisplayName: "Merkez 02", Role: models.RoleCenter, CenterID: &centers[1].ID},
	}
	for i, b := range branches {
		no := fmt.Sprintf("%02d", i+1)
		users = append(users, models.User{
			Email:       fmt.Sprintf("sube%s@borekci.com", no),
			Phone:       phone("9055511101" + no),
			DisplayName: b.Name + " Yetkilisi",
			Role:        models.RoleBranch,
			BranchID:    &branches[i].ID,
		})
	}
	for _, u := range users {
		u.PasswordHash = hash
		u.IsActive = true
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"phone", "display_name", "password_hash", "role", "branch_id", "center_id", "is_active", "updated_at",
			}),
		}).Create(&u).Error; err != nil {
			return fmt.Errorf("kullanıcı %s: %w", u.Email, err)
		}
	}

	log.Printf("%d merkez, %d şube, %d ürün, %d kullanıcı hazır", len(centers), len(branches), len(products), len(users))
	return nil
}

// ensureCenter: İsme göre bulur ve alanları günceller, yoksa oluşturur
func ensureCenter(tx *gorm.DB, data models.Center) (*models.Center, error) {
	data.IsActive = true
	var c models.Center
	if err := tx.Where("name = ?", data.Name).
		Assign(map[string]any{
			"manager": data.Manager, "phone": data.Phone, "email": data.Email,
			"address": data.Address, "is_active": true,
		}).
		Attrs(data).
		FirstOrCreate(&c).Error; err != nil {
		return nil, fmt.Errorf("merkez %s: %w", data.Name, err)
	}
	return &c, nil
}

func ensureBranch(tx *gorm.DB, data models.Branch) (*models.Branch, error) {
	data.IsActive = true
	var b models.Branch
	if err := tx.Omit(clause.Associations).Where("name = ?", data.Name).
		Assign(map[string]any{
			"center_id": *data.CenterID, "manager": data.Manager, "phone": data.Phone,
			"email": data.Email, "address": data.Address, "is_active": true,
		}).
		Attrs(data).
		FirstOrCreate(&b).Error; err != nil {
		return nil, fmt.Errorf("şube %s: %w", data.Name, err)
	}
	return &b, nil
}

func phone(v string) *string { return &v }
