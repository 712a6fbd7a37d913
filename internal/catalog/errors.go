package catalog

import "siparis-backend/internal/apperr"

var (
	ErrProductNotFound = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Ürün bulunamadı")
	ErrProductExists   = apperr.New(apperr.KindConflict, "PRODUCT_EXISTS", "Bu ürün kodu zaten kullanılıyor")
	ErrProductInUse    = apperr.New(apperr.KindConflict, "PRODUCT_IN_USE", "Bu ürün siparişlerde kullanıldığı için silinemez")
	ErrBranchRequired  = apperr.New(apperr.KindValidation, "BRANCH_REQUIRED", "Şube seçilmeli")
	ErrBranchNotFound  = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Şube bulunamadı")
)
