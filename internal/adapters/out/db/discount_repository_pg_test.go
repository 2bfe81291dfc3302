package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"threadline/internal/domain/discount"
)

func TestDiscountRepositoryFallback(t *testing.T) {
	static := discount.NewStaticRates(map[string]int{"WELCOME10": 10})

	// no pool configured: the static table serves
	r := NewDiscountRepositoryPG(nil, static)
	assert.Equal(t, 0.10, r.Rate(context.Background(), "welcome10"))
	assert.Equal(t, 0.0, r.Rate(context.Background(), "NOPE"))
	assert.Equal(t, 0.0, r.Rate(context.Background(), "   "))

	// no fallback either: everything prices at 0
	bare := NewDiscountRepositoryPG(nil, nil)
	assert.Equal(t, 0.0, bare.Rate(context.Background(), "WELCOME10"))
}

func TestRateFromPercent(t *testing.T) {
	assert.Equal(t, 0.20, rateFromPercent(20))
	assert.Equal(t, 0.0, rateFromPercent(0))
	assert.Equal(t, 1.0, rateFromPercent(100))

	// out of policy bounds
	assert.Equal(t, 0.0, rateFromPercent(-5))
	assert.Equal(t, 0.0, rateFromPercent(150))
}
