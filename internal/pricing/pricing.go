// Package pricing şube bazlı birim fiyat hesabını yapar.
//
// Fiyat = liste fiyatı × (1 + yüzde/100) + ürün farkı, tam sayıya yuvarlanır ve en az 1 olur.
// Aynı fonksiyon hem şubenin canlı fiyat listesinde hem de sipariş anındaki fiyat kopyasında kullanılır.
package pricing

import "github.com/shopspring/decimal"

var (
	MinPercent     = decimal.NewFromInt(-90)
	MaxPercent     = decimal.NewFromInt(200)
	MinExtraAmount = decimal.NewFromInt(-100000)
	MaxExtraAmount = decimal.NewFromInt(100000)

	// Bu değerin altındaki ürün farkları "0" sayılır ve kayıt silinir
	ExtraAmountEpsilon = decimal.RequireFromString("0.005")

	minPrice = decimal.NewFromInt(1)
	hundred  = decimal.NewFromInt(100)
)

// AdjustedPrice girdileri doğrulamaz; yüzde ve fark kaydedilirken sınırlandırılır.
func AdjustedPrice(basePrice, percent, extraAmount decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(percent.Div(hundred))
	// pozitif değerlerde Round(0) yarımı yukarı yuvarlar; negatifler zaten 1'e çekiliyor
	result := basePrice.Mul(factor).Add(extraAmount).Round(0)
	if result.LessThan(minPrice) {
		return minPrice
	}
	return result
}

// ClampPercent yüzdeyi [-90, 200] aralığına çeker.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	return clamp(p, MinPercent, MaxPercent)
}

// ClampExtraAmount ürün farkını [-100000, 100000] aralığına çeker.
func ClampExtraAmount(a decimal.Decimal) decimal.Decimal {
	return clamp(a, MinExtraAmount, MaxExtraAmount)
}

func PercentInRange(p decimal.Decimal) bool {
	return !p.LessThan(MinPercent) && !p.GreaterThan(MaxPercent)
}

func ExtraAmountInRange(a decimal.Decimal) bool {
	return !a.LessThan(MinExtraAmount) && !a.GreaterThan(MaxExtraAmount)
}

// IsZeroExtra: Fark kaydı tutulmaya değmeyecek kadar küçük mü?
func IsZeroExtra(a decimal.Decimal) bool {
	return a.Abs().LessThan(ExtraAmountEpsilon)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
