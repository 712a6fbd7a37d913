package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Aynı saniyede çakışan numara için üst sınır
const maxOrderNumberAttempts = 5

// NumberGenerator: SP-YYYYMMDD-HHMMSS-RRR formatında sipariş numarası üretir.
// Saat ve rastgelelik testlerde değiştirilebilir.
type NumberGenerator struct {
	Now      func() time.Time
	Rand     func() int // [0, 1000)
	Location *time.Location
}

func NewNumberGenerator(loc *time.Location) *NumberGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &NumberGenerator{
		Now:      time.Now,
		Rand:     func() int { return rand.IntN(1000) },
		Location: loc,
	}
}

// Next: Tek bir aday numara
func (g *NumberGenerator) Next() string {
	now := g.Now().In(g.Location)
	r := g.Rand() % 1000
	if r < 0 {
		r = -r
	}
	return fmt.Sprintf("SP-%s-%03d", now.Format("20060102-150405"), r)
}
