package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger("avatar-1", t0)
	require.NoError(t, err)
	return l
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "p1", Identity("p1", ""))
	assert.Equal(t, "p1:M", Identity("p1", "M"))
	assert.Equal(t, "p1:M", Identity(" p1 ", " M "))

	it := LineItem{ProductID: "hoodie", VariantKey: "L"}
	assert.Equal(t, "hoodie:L", it.Identity())
}

func TestNewLedgerRequiresID(t *testing.T) {
	_, err := NewLedger("  ", t0)
	assert.ErrorIs(t, err, ErrInvalidLedger)
}

func TestAddNew(t *testing.T) {
	l := newTestLedger(t)

	rej, err := l.AddNew("tee", "", "Basic Tee", 1200, 10, t0)
	require.NoError(t, err)
	require.Nil(t, rej)
	require.Len(t, l.Items, 1)
	assert.Equal(t, 1, l.Items[0].Quantity)
	assert.Equal(t, 10, l.Items[0].ObservedStock)

	// same identity again is a caller bug, not a rejection
	_, err = l.AddNew("tee", "", "Basic Tee", 1200, 10, t0)
	assert.ErrorIs(t, err, ErrInvalidLedger)

	// same product, different variant, is a distinct row
	rej, err = l.AddNew("tee", "L", "Basic Tee (L)", 1200, 4, t0)
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Len(t, l.Items, 2)
}

func TestAddNewOutOfStock(t *testing.T) {
	l := newTestLedger(t)

	rej, err := l.AddNew("tee", "", "Basic Tee", 1200, 0, t0)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonOutOfStock, rej.Reason)
	assert.Empty(t, l.Items)
}

func TestIncrementCaps(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 10, t0)
	require.NoError(t, err)

	for i := 0; i < MaxPerLine-1; i++ {
		rej, err := l.Increment("tee", 10, t0)
		require.NoError(t, err)
		require.Nil(t, rej)
	}
	assert.Equal(t, MaxPerLine, l.Items[0].Quantity)

	rej, err := l.Increment("tee", 10, t0)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonPerLineCapExceeded, rej.Reason)
	assert.Equal(t, MaxPerLine, l.Items[0].Quantity)
}

func TestIncrementInsufficientStock(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 10, t0)
	require.NoError(t, err)

	// fresh read says: only 1 left
	rej, err := l.Increment("tee", 1, t0)
	require.NoError(t, err)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonInsufficientStock, rej.Reason)
	assert.Equal(t, 1, rej.Available)
	assert.Equal(t, 1, l.Items[0].Quantity)
}

func TestIncrementRefreshesObservedStock(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 10, t0)
	require.NoError(t, err)

	rej, err := l.Increment("tee", 3, t0)
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Equal(t, 3, l.Items[0].ObservedStock)
}

func TestSetQuantity(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 4, t0)
	require.NoError(t, err)

	cases := []struct {
		name   string
		n      int
		reason Reason
		want   int
	}{
		{name: "exact set", n: 3, want: 3},
		{name: "zero rejected not clamped", n: 0, reason: ReasonInvalidQuantity, want: 3},
		{name: "negative rejected", n: -2, reason: ReasonInvalidQuantity, want: 3},
		{name: "above cap", n: MaxPerLine + 1, reason: ReasonPerLineCapExceeded, want: 3},
		{name: "above observed stock", n: 5, reason: ReasonInsufficientStock, want: 3},
		{name: "up to observed stock", n: 4, want: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rej, err := l.SetQuantity("tee", tc.n, t0)
			require.NoError(t, err)
			if tc.reason != "" {
				require.NotNil(t, rej)
				assert.Equal(t, tc.reason, rej.Reason)
			} else {
				assert.Nil(t, rej)
			}
			assert.Equal(t, tc.want, l.Items[0].Quantity)
		})
	}
}

func TestSetQuantityUnknownIdentity(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.SetQuantity("ghost", 2, t0)
	assert.ErrorIs(t, err, ErrInvalidLedger)
}

func TestRemove(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 5, t0)
	require.NoError(t, err)
	_, err = l.AddNew("hoodie", "L", "Hoodie", 4500, 5, t0)
	require.NoError(t, err)

	removed, ok := l.Remove("tee", t0)
	require.True(t, ok)
	assert.Equal(t, "Basic Tee", removed.ProductName)
	require.Len(t, l.Items, 1)
	assert.Equal(t, "hoodie:L", l.Items[0].Identity())

	_, ok = l.Remove("tee", t0)
	assert.False(t, ok)
}

func TestDiscountLifecycle(t *testing.T) {
	l := newTestLedger(t)

	l.ApplyDiscount("welcome10", t0)
	assert.Equal(t, "welcome10", l.DiscountCode)

	// overwrite, never stack
	l.ApplyDiscount("VIP20", t0)
	assert.Equal(t, "VIP20", l.DiscountCode)

	assert.True(t, l.RemoveDiscount(t0))
	assert.Empty(t, l.DiscountCode)
	assert.False(t, l.RemoveDiscount(t0))
}

func TestDiscountReapplyIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 5, t0)
	require.NoError(t, err)

	l.ApplyDiscount("VIP20", t0)
	totalBefore := l.Total(0.20)

	// same code again: no stacking, total unchanged
	l.ApplyDiscount("VIP20", t0)
	assert.Equal(t, "VIP20", l.DiscountCode)
	assert.Equal(t, totalBefore, l.Total(0.20))
}

func TestClearKeepsDiscountCode(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 5, t0)
	require.NoError(t, err)
	l.ApplyDiscount("VIP20", t0)

	l.Clear(t0)
	assert.Empty(t, l.Items)
	assert.Equal(t, "VIP20", l.DiscountCode)
}

func TestShippingCharge(t *testing.T) {
	l := newTestLedger(t)
	assert.Equal(t, 0, l.ShippingCharge(), "empty cart ships free")

	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 5, t0)
	require.NoError(t, err)
	assert.Equal(t, FlatShippingFee, l.ShippingCharge())

	rej, err := l.SetQuantity("tee", 3, t0) // 3600 >= 2999
	require.NoError(t, err)
	require.Nil(t, rej)
	assert.Equal(t, 0, l.ShippingCharge())
}

func TestTotals(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 1000, 5, t0)
	require.NoError(t, err)
	rej, err := l.SetQuantity("tee", 2, t0)
	require.NoError(t, err)
	require.Nil(t, rej)

	assert.Equal(t, 2, l.TotalItems())
	assert.Equal(t, 2000, l.Subtotal())
	assert.Equal(t, 2000+FlatShippingFee, l.Total(0))

	// 10% off the subtotal, shipping unaffected
	assert.Equal(t, 1800+FlatShippingFee, l.Total(0.10))

	// rate is clamped
	assert.Equal(t, 2000+FlatShippingFee, l.Total(-1))
	assert.Equal(t, 0+FlatShippingFee, l.Total(2))
}

func TestTotalRounding(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "", "Basic Tee", 333, 5, t0)
	require.NoError(t, err)

	// 333 * 0.85 = 283.05 -> 283
	assert.Equal(t, 283+FlatShippingFee, l.Total(0.15))
}

func TestDistinctProductIDs(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddNew("tee", "M", "Tee M", 1000, 5, t0)
	require.NoError(t, err)
	_, err = l.AddNew("tee", "L", "Tee L", 1000, 5, t0)
	require.NoError(t, err)
	_, err = l.AddNew("hoodie", "", "Hoodie", 4000, 5, t0)
	require.NoError(t, err)

	assert.Equal(t, []string{"tee", "hoodie"}, l.DistinctProductIDs())
}

func TestMutationRefreshesExpiry(t *testing.T) {
	l := newTestLedger(t)
	later := t0.Add(3 * time.Hour)

	_, err := l.AddNew("tee", "", "Basic Tee", 1200, 5, later)
	require.NoError(t, err)
	assert.Equal(t, later, l.UpdatedAt)
	assert.Equal(t, later.Add(DefaultLedgerTTL), l.ExpiresAt)
}
