// internal/domain/order/entity.go
package order

import (
	"errors"
	"time"

	cartdom "threadline/internal/domain/cart"
)

var (
	ErrEmptyDraft = errors.New("order: draft has no items")
)

// DraftItem is the immutable per-line handoff shape for Order Commit.
type DraftItem struct {
	Identity   string `json:"identity"`
	ProductID  string `json:"productId"`
	VariantKey string `json:"variantKey,omitempty"`
	Quantity   int    `json:"quantity"`

	// UnitPrice is the price snapshotted at addition time, NOT re-read
	// at commit.
	UnitPrice int `json:"unitPrice"`
}

// Draft is the finalized snapshot this engine hands to Order Commit.
// It is built only from a ledger that passed reconciliation; after
// BuildDraft it never changes.
type Draft struct {
	Items          []DraftItem `json:"items"`
	Subtotal       int         `json:"subtotal"`
	ShippingCharge int         `json:"shippingCharge"`
	DiscountCode   string      `json:"discountCode,omitempty"`
	Total          int         `json:"total"`
}

// BuildDraft snapshots the ledger with the resolved discount rate.
func BuildDraft(l *cartdom.Ledger, rate float64) (Draft, error) {
	if l == nil || len(l.Items) == 0 {
		return Draft{}, ErrEmptyDraft
	}

	items := make([]DraftItem, 0, len(l.Items))
	for _, it := range l.Items {
		items = append(items, DraftItem{
			Identity:   it.Identity(),
			ProductID:  it.ProductID,
			VariantKey: it.VariantKey,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}

	return Draft{
		Items:          items,
		Subtotal:       l.Subtotal(),
		ShippingCharge: l.ShippingCharge(),
		DiscountCode:   l.DiscountCode,
		Total:          l.Total(rate),
	}, nil
}

// Order is the persisted record returned by a successful commit.
type Order struct {
	ID             string      `json:"id"`
	AvatarID       string      `json:"avatarId"`
	Items          []DraftItem `json:"items"`
	Subtotal       int         `json:"subtotal"`
	ShippingCharge int         `json:"shippingCharge"`
	DiscountCode   string      `json:"discountCode,omitempty"`
	Total          int         `json:"total"`
	CreatedAt      time.Time   `json:"createdAt"`
}
