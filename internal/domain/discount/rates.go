// internal/domain/discount/rates.go
package discount

import (
	"context"
	"strings"
)

// Policy
var (
	// 0..100% by default
	MinPercent = 0
	MaxPercent = 100
)

// RateLookup resolves a discount code to a rate in [0, 1].
// Unknown codes resolve to 0 (the ledger accepts any string as its code;
// pricing is where recognition happens). Lookup failures also resolve to 0
// rather than blocking totals.
type RateLookup interface {
	Rate(ctx context.Context, code string) float64
}

// StaticRates is an in-memory RateLookup keyed by canonical (upper-cased,
// trimmed) code. It is both the test double and the fallback when no
// database-backed table is configured.
type StaticRates struct {
	rates map[string]float64
}

// NewStaticRates copies the given code->percent table.
// Percent outside policy bounds is dropped.
func NewStaticRates(percents map[string]int) *StaticRates {
	m := make(map[string]float64, len(percents))
	for code, pct := range percents {
		c := Canonical(code)
		if c == "" || pct < MinPercent || pct > MaxPercent {
			continue
		}
		m[c] = float64(pct) / 100.0
	}
	return &StaticRates{rates: m}
}

func (s *StaticRates) Rate(_ context.Context, code string) float64 {
	if s == nil {
		return 0
	}
	return s.rates[Canonical(code)]
}

// Canonical normalizes a code for lookup.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
