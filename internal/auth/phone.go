package auth

import (
	"regexp"
	"strings"
)

var strictTRPhone = regexp.MustCompile(`^90\d{10}$`)

// NormalizePhone: Türkiye numaralarını 90XXXXXXXXXX formatına çevirir.
// 0555..., 555... ve 90555... aynı numaraya normalize olur; diğerleri sadece rakamlara indirgenir.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return ""
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return "90" + digits[1:]
	case len(digits) == 10:
		return "90" + digits
	}
	return digits
}

func IsStrictTRPhone(value string) bool {
	return strictTRPhone.MatchString(NormalizePhone(value))
}

// LooksLikePhone: Giriş alanında email yerine telefon yazılmış mı?
func LooksLikePhone(value string) bool {
	n := len(NormalizePhone(value))
	return n >= 10 && n <= 15
}
