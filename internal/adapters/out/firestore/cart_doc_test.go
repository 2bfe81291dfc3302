package firestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "threadline/internal/domain/cart"
)

var docNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCartDocRoundTrip(t *testing.T) {
	l, err := cartdom.NewLedger("av-1", docNow)
	require.NoError(t, err)
	rej, err := l.AddNew("tee", "M", "Logo Tee", 1200, 5, docNow)
	require.NoError(t, err)
	require.Nil(t, rej)
	l.ApplyDiscount("VIP20", docNow)

	d := cartDocFromDomain(l)
	assert.Equal(t, cartDocSchemaVersion, d.SchemaVersion)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "VIP20", d.DiscountCode)

	back := d.toDomain()
	assert.Equal(t, l.Items, back.Items)
	assert.Equal(t, l.DiscountCode, back.DiscountCode)
	assert.Equal(t, l.CreatedAt, back.CreatedAt)
	assert.Equal(t, l.ExpiresAt, back.ExpiresAt)
}

func TestCartDocFromDomainSkipsUnusableRows(t *testing.T) {
	l := &cartdom.Ledger{
		ID: "av-1",
		Items: []cartdom.LineItem{
			{ProductID: "  ", Quantity: 1},
			{ProductID: "tee", Quantity: 0},
			{ProductID: "tee", VariantKey: "M", ProductName: "Logo Tee", Quantity: 2, UnitPrice: 1200},
		},
	}

	d := cartDocFromDomain(l)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "tee", d.Items[0].ProductID)
}

func TestCartDocToDomainDedupesIdentities(t *testing.T) {
	d := cartDoc{
		SchemaVersion: cartDocSchemaVersion,
		Items: []cartItemDoc{
			{ProductID: "tee", VariantKey: "M", Quantity: 2, UnitPrice: 1200},
			{ProductID: "tee", VariantKey: "M", Quantity: 5, UnitPrice: 1200},
			{ProductID: "tee", VariantKey: "L", Quantity: 1, UnitPrice: 1200},
		},
	}

	l := d.toDomain()
	require.Len(t, l.Items, 2)
	assert.Equal(t, 2, l.Items[0].Quantity) // first row wins
	assert.Equal(t, "L", l.Items[1].VariantKey)
}

func TestCartDocFromData(t *testing.T) {
	raw := map[string]any{
		"schemaVersion": int64(cartDocSchemaVersion),
		"discountCode":  " VIP20 ",
		"createdAt":     docNow,
		"updatedAt":     docNow,
		"expiresAt":     docNow.Add(7 * 24 * time.Hour),
		"items": []any{
			map[string]any{
				"productId":     "tee",
				"variantKey":    "M",
				"productName":   "Logo Tee",
				"quantity":      int64(2),
				"unitPrice":     int64(1200),
				"observedStock": int64(5),
			},
			map[string]any{"productId": "", "quantity": int64(1)}, // skipped
			"not-a-map", // skipped
		},
	}

	d, ok := cartDocFromData(raw)
	require.True(t, ok)
	assert.Equal(t, "VIP20", d.DiscountCode)
	assert.Equal(t, docNow, d.CreatedAt)
	require.Len(t, d.Items, 1)
	assert.Equal(t, cartItemDoc{
		ProductID:     "tee",
		VariantKey:    "M",
		ProductName:   "Logo Tee",
		Quantity:      2,
		UnitPrice:     1200,
		ObservedStock: 5,
	}, d.Items[0])
}

func TestCartDocFromDataRejectsUnusableDocs(t *testing.T) {
	_, ok := cartDocFromData(nil)
	assert.False(t, ok)

	// pre-versioning blob
	_, ok = cartDocFromData(map[string]any{"items": []any{}})
	assert.False(t, ok)

	// future schema
	_, ok = cartDocFromData(map[string]any{"schemaVersion": int64(cartDocSchemaVersion + 1)})
	assert.False(t, ok)

	// versioned doc with a corrupt items field
	_, ok = cartDocFromData(map[string]any{
		"schemaVersion": int64(cartDocSchemaVersion),
		"items":         "corrupt",
	})
	assert.False(t, ok)

	// versioned doc with no items at all is an empty cart, still usable
	d, ok := cartDocFromData(map[string]any{"schemaVersion": int64(cartDocSchemaVersion)})
	require.True(t, ok)
	assert.Empty(t, d.Items)
}
