package order

import "siparis-backend/internal/apperr"

var (
	ErrBranchRequired       = apperr.New(apperr.KindValidation, "BRANCH_REQUIRED", "Kullanıcı bir şubeye bağlı değil")
	ErrBranchNotFound       = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Şube bulunamadı")
	ErrBranchInactive       = apperr.New(apperr.KindForbidden, "BRANCH_INACTIVE", "Şube pasif, sipariş oluşturulamaz")
	ErrProductNotFound      = apperr.New(apperr.KindValidation, "PRODUCT_NOT_FOUND", "Ürün bulunamadı")
	ErrProductInactive      = apperr.New(apperr.KindValidation, "PRODUCT_INACTIVE", "Ürün pasif")
	ErrOrderNotFound        = apperr.New(apperr.KindNotFound, "NOT_FOUND", "Sipariş bulunamadı")
	ErrOrderNotPending      = apperr.New(apperr.KindState, "ORDER_NOT_PENDING", "Sipariş onay beklemiyor")
	ErrOrderNotApproved     = apperr.New(apperr.KindState, "ORDER_NOT_APPROVED", "Sadece onaylanmış siparişler teslim edilebilir")
	ErrOrderNumberExhausted = apperr.New(apperr.KindConflict, "ORDER_NUMBER_EXHAUSTED", "Sipariş numarası üretilemedi, lütfen tekrar deneyin")
	ErrOrderForbidden       = apperr.New(apperr.KindForbidden, "FORBIDDEN", "Bu siparişe erişim yetkiniz yok")
)
