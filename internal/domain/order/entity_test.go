package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "threadline/internal/domain/cart"
)

func TestBuildDraft(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l, err := cartdom.NewLedger("avatar-1", now)
	require.NoError(t, err)
	_, err = l.AddNew("tee", "M", "Basic Tee", 1000, 5, now)
	require.NoError(t, err)
	rej, err := l.SetQuantity("tee:M", 2, now)
	require.NoError(t, err)
	require.Nil(t, rej)
	l.ApplyDiscount("VIP20", now)

	d, err := BuildDraft(l, 0.20)
	require.NoError(t, err)

	require.Len(t, d.Items, 1)
	assert.Equal(t, "tee:M", d.Items[0].Identity)
	assert.Equal(t, 2, d.Items[0].Quantity)
	assert.Equal(t, 1000, d.Items[0].UnitPrice)

	assert.Equal(t, 2000, d.Subtotal)
	assert.Equal(t, cartdom.FlatShippingFee, d.ShippingCharge)
	assert.Equal(t, "VIP20", d.DiscountCode)
	assert.Equal(t, 1600+cartdom.FlatShippingFee, d.Total)
}

func TestBuildDraftEmpty(t *testing.T) {
	now := time.Now()
	l, err := cartdom.NewLedger("avatar-1", now)
	require.NoError(t, err)

	_, err = BuildDraft(l, 0)
	assert.ErrorIs(t, err, ErrEmptyDraft)

	_, err = BuildDraft(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyDraft)
}
