// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrInvalidLedger = errors.New("cart: invalid ledger")
)

// Policy (sync with web-app cart constants as needed)
const (
	// MaxPerLine is the global per-line-item quantity cap.
	MaxPerLine = 5

	// FreeShippingThreshold / FlatShippingFee drive the derived shipping charge.
	// subtotal >= threshold (or an empty cart) ships free; otherwise flat fee.
	FreeShippingThreshold = 2999
	FlatShippingFee       = 59
)

// DefaultLedgerTTL is the inactivity window after which a persisted ledger
// becomes eligible for auto deletion (Firestore TTL should be configured on
// expiresAt).
const DefaultLedgerTTL = 7 * 24 * time.Hour

// LineItem represents "one row" in the cart ledger.
// Uniqueness is defined by Identity() = productId, or productId:variantKey
// when the product has a size dimension.
type LineItem struct {
	ProductID  string `json:"productId" firestore:"productId"`
	VariantKey string `json:"variantKey,omitempty" firestore:"variantKey,omitempty"`

	// ProductName is carried for user-visible messaging only.
	ProductName string `json:"productName" firestore:"productName"`

	// Quantity is always 1..MaxPerLine and never exceeds ObservedStock
	// after a successful mutation.
	Quantity int `json:"quantity" firestore:"quantity"`

	// UnitPrice is the effective price snapshotted when the item was added
	// (discounted price if one was present, else base price).
	UnitPrice int `json:"unitPrice" firestore:"unitPrice"`

	// ObservedStock is the last stock figure seen for this identity.
	// It backs the optimistic SetQuantity path ("only N available"
	// without a round-trip per stepper click).
	ObservedStock int `json:"observedStock" firestore:"observedStock"`
}

// Identity derives the composite line-item key.
func Identity(productID, variantKey string) string {
	pid := strings.TrimSpace(productID)
	vk := strings.TrimSpace(variantKey)
	if vk == "" {
		return pid
	}
	return pid + ":" + vk
}

func (it LineItem) Identity() string {
	return Identity(it.ProductID, it.VariantKey)
}

// Ledger is the authoritative cart state for one shopper.
//   - docId = avatarId (Firestore)
//   - Items keep insertion order; each identity appears at most once
//   - DiscountCode: single active code, overwrite on apply, no stacking
//
// NOTE:
// - Clear() は items のみ空にする（discountCode は残す / ライフサイクル独立）
// - ExpiresAt is refreshed on each mutation (Firestore TTL basis).
type Ledger struct {
	// ID is the Firestore docId (= avatarId).
	ID string `json:"id" firestore:"id"`

	Items        []LineItem `json:"items" firestore:"items"`
	DiscountCode string     `json:"discountCode,omitempty" firestore:"discountCode,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

// NewLedger creates an empty ledger for the avatar.
func NewLedger(id string, now time.Time) (*Ledger, error) {
	docID := strings.TrimSpace(id)
	l := &Ledger{
		ID:        docID,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultLedgerTTL),
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// ----------------------------
// Lookup
// ----------------------------

// Find returns the index of the line item with identity, or -1.
func (l *Ledger) Find(identity string) int {
	identity = strings.TrimSpace(identity)
	for i := range l.Items {
		if l.Items[i].Identity() == identity {
			return i
		}
	}
	return -1
}

// DistinctProductIDs returns the product ids referenced by the ledger,
// deduplicated, in first-seen order (one product can appear under several
// variant keys).
func (l *Ledger) DistinctProductIDs() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" {
			continue
		}
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}
	return out
}

// ----------------------------
// Mutations
// ----------------------------
// Mutations return (*Rejection, error):
// - Rejection != nil  -> refused for a business reason, ledger unchanged
// - error != nil      -> the ledger itself is broken (programming error)
// On rejection the ledger is guaranteed untouched; there is no clamping.

// AddNew inserts a brand-new line item with quantity 1.
// availableStock is the freshly observed stock for the identity.
func (l *Ledger) AddNew(productID, variantKey, productName string, unitPrice, availableStock int, now time.Time) (*Rejection, error) {
	if l == nil {
		return nil, ErrInvalidLedger
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, ErrInvalidLedger
	}
	if idx := l.Find(Identity(pid, variantKey)); idx >= 0 {
		// caller should have routed to Increment
		return nil, ErrInvalidLedger
	}

	if availableStock <= 0 {
		return RejectOutOfStock(productName), nil
	}

	l.Items = append(l.Items, LineItem{
		ProductID:     pid,
		VariantKey:    strings.TrimSpace(variantKey),
		ProductName:   strings.TrimSpace(productName),
		Quantity:      1,
		UnitPrice:     unitPrice,
		ObservedStock: availableStock,
	})
	l.touch(now)
	return nil, l.validate()
}

// Increment bumps quantity by one for an existing identity and refreshes
// its ObservedStock from the fresh read.
func (l *Ledger) Increment(identity string, availableStock int, now time.Time) (*Rejection, error) {
	if l == nil {
		return nil, ErrInvalidLedger
	}

	idx := l.Find(identity)
	if idx < 0 {
		return nil, ErrInvalidLedger
	}
	it := l.Items[idx]

	if it.Quantity >= MaxPerLine {
		return RejectPerLineCap(it.ProductName), nil
	}
	if it.Quantity >= availableStock {
		return RejectInsufficientStock(it.ProductName, availableStock), nil
	}

	l.Items[idx].Quantity = it.Quantity + 1
	l.Items[idx].ObservedStock = availableStock
	l.touch(now)
	return nil, l.validate()
}

// SetQuantity sets quantity exactly, validated against the CACHED
// ObservedStock (optimistic path; no oracle read).
// n <= 0 is rejected: removal must go through Remove, never a silent clamp.
func (l *Ledger) SetQuantity(identity string, n int, now time.Time) (*Rejection, error) {
	if l == nil {
		return nil, ErrInvalidLedger
	}

	idx := l.Find(identity)
	if idx < 0 {
		return nil, ErrInvalidLedger
	}
	it := l.Items[idx]

	if n <= 0 {
		return RejectInvalidQuantity(n), nil
	}
	if n > MaxPerLine {
		return RejectPerLineCap(it.ProductName), nil
	}
	if n > it.ObservedStock {
		return RejectInsufficientStock(it.ProductName, it.ObservedStock), nil
	}

	l.Items[idx].Quantity = n
	l.touch(now)
	return nil, l.validate()
}

// Remove deletes the line item if present (no-op when absent).
// The removed item is returned for user-visible messaging.
func (l *Ledger) Remove(identity string, now time.Time) (LineItem, bool) {
	if l == nil {
		return LineItem{}, false
	}
	idx := l.Find(identity)
	if idx < 0 {
		return LineItem{}, false
	}
	removed := l.Items[idx]
	// preserve order
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	l.touch(now)
	return removed, true
}

// ApplyDiscount overwrites any existing code unconditionally.
// Code existence/eligibility is NOT validated here; an unrecognized code
// simply prices at 0% (rate lookup is a pricing concern, not the ledger's).
func (l *Ledger) ApplyDiscount(code string, now time.Time) {
	if l == nil {
		return
	}
	l.DiscountCode = strings.TrimSpace(code)
	l.touch(now)
}

// RemoveDiscount clears the code; reports whether one was present.
func (l *Ledger) RemoveDiscount(now time.Time) bool {
	if l == nil {
		return false
	}
	had := l.DiscountCode != ""
	l.DiscountCode = ""
	if had {
		l.touch(now)
	}
	return had
}

// Clear empties the items. DiscountCode is intentionally left in place:
// the code lifecycle is independent of the items.
func (l *Ledger) Clear(now time.Time) {
	if l == nil {
		return
	}
	l.Items = []LineItem{}
	l.touch(now)
}

// ----------------------------
// Derived getters (pure, recomputed per call)
// ----------------------------

func (l *Ledger) TotalItems() int {
	n := 0
	for _, it := range l.Items {
		n += it.Quantity
	}
	return n
}

func (l *Ledger) Subtotal() int {
	sum := 0
	for _, it := range l.Items {
		sum += it.Quantity * it.UnitPrice
	}
	return sum
}

func (l *Ledger) ShippingCharge() int {
	sub := l.Subtotal()
	if sub == 0 || sub >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// Total applies the discount rate (0..1, resolved by the caller via rate
// lookup) to the subtotal, then adds shipping.
func (l *Ledger) Total(rate float64) int {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	discounted := int(math.Round(float64(l.Subtotal()) * (1 - rate)))
	return discounted + l.ShippingCharge()
}

// ----------------------------
// Internal
// ----------------------------

func (l *Ledger) touch(now time.Time) {
	l.UpdatedAt = now
	l.ExpiresAt = now.Add(DefaultLedgerTTL)
}

func (l *Ledger) validate() error {
	if l == nil {
		return ErrInvalidLedger
	}
	if strings.TrimSpace(l.ID) == "" {
		return ErrInvalidLedger
	}
	if l.CreatedAt.IsZero() || l.UpdatedAt.IsZero() || l.ExpiresAt.IsZero() {
		return ErrInvalidLedger
	}
	if l.UpdatedAt.Before(l.CreatedAt) {
		return ErrInvalidLedger
	}
	if l.ExpiresAt.Before(l.UpdatedAt) {
		return ErrInvalidLedger
	}

	seen := make(map[string]struct{}, len(l.Items))
	for _, it := range l.Items {
		id := it.Identity()
		if strings.TrimSpace(it.ProductID) == "" {
			return ErrInvalidLedger
		}
		if it.Quantity < 1 || it.Quantity > MaxPerLine {
			return ErrInvalidLedger
		}
		if _, ok := seen[id]; ok {
			return ErrInvalidLedger
		}
		seen[id] = struct{}{}
	}
	return nil
}
