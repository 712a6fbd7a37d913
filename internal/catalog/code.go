package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ProductCode: Ürün adından kalıcı kod üretir.
// Örn: "Kıymalı Börek" -> "kiymali_borek", "Su Böreği (Tepsi)" -> "su_boregi_tepsi"
func ProductCode(text string) string {
	// ı ve İ ayrıştırılamadığı için önce elle çevrilir
	text = strings.NewReplacer("ı", "i", "İ", "I").Replace(text)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(stripped) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
