package discount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticRates(t *testing.T) {
	ctx := context.Background()
	s := NewStaticRates(map[string]int{
		"welcome10": 10,
		"VIP20":     20,
		"BAD":       150, // outside policy, dropped
		"  ":        5,
	})

	assert.InDelta(t, 0.10, s.Rate(ctx, "WELCOME10"), 1e-9)
	assert.InDelta(t, 0.10, s.Rate(ctx, "  welcome10 "), 1e-9)
	assert.InDelta(t, 0.20, s.Rate(ctx, "vip20"), 1e-9)

	// unknown and dropped codes price at 0%
	assert.Zero(t, s.Rate(ctx, "BAD"))
	assert.Zero(t, s.Rate(ctx, "NOPE"))
	assert.Zero(t, s.Rate(ctx, ""))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "VIP20", Canonical("  vip20 "))
	assert.Equal(t, "", Canonical("   "))
}
