// internal/domain/storeconfig/repository_port.go
package storeconfig

import "context"

// FailOpenPurchasing is the value PurchasingEnabled falls back to when the
// settings store is unreachable. This is a deliberate
// availability-over-strictness choice: a flapping settings read must not
// close the store. The final stock decrement still fails closed at Order
// Commit, so nothing oversells because of this default.
const FailOpenPurchasing = true

// Gate gates all mutating cart operations on the storewide
// purchases_enabled flag.
type Gate interface {
	// PurchasingEnabled never returns an error: read failures degrade to
	// FailOpenPurchasing (implementations log the failure).
	PurchasingEnabled(ctx context.Context) bool
}
