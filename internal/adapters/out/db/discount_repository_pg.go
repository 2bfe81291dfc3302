package db

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"threadline/internal/domain/discount"
)

// DiscountRepositoryPG implements discount.RateLookup with PostgreSQL.
//
// discount_codes is the authoritative table (code, percent, active);
// a code without a row falls through to the static table so env-seeded
// storewide codes keep working. Lookup failures resolve through the
// fallback too: pricing must never block on the discount table.
type DiscountRepositoryPG struct {
	DB       *sql.DB
	Fallback discount.RateLookup
}

func NewDiscountRepositoryPG(db *sql.DB, fallback discount.RateLookup) *DiscountRepositoryPG {
	return &DiscountRepositoryPG{DB: db, Fallback: fallback}
}

func (r *DiscountRepositoryPG) Rate(ctx context.Context, code string) float64 {
	c := discount.Canonical(code)
	if c == "" {
		return 0
	}
	if r == nil || r.DB == nil {
		return r.fallbackRate(ctx, code)
	}

	const q = `
SELECT percent
FROM discount_codes
WHERE code = $1 AND active
`
	var percent sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q, c).Scan(&percent)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.fallbackRate(ctx, code)
	case err != nil:
		log.Printf("[discount_pg] WARN: rate lookup failed code=%s err=%v (using fallback)", c, err)
		return r.fallbackRate(ctx, code)
	}

	return rateFromPercent(int(percent.Int64))
}

func (r *DiscountRepositoryPG) fallbackRate(ctx context.Context, code string) float64 {
	if r == nil || r.Fallback == nil {
		return 0
	}
	return r.Fallback.Rate(ctx, code)
}

// rateFromPercent converts a stored percent to a rate, dropping rows
// outside the policy bounds to 0.
func rateFromPercent(pct int) float64 {
	if pct < discount.MinPercent || pct > discount.MaxPercent {
		return 0
	}
	return float64(pct) / 100.0
}
