// internal/domain/order/committer_port.go
package order

import (
	"context"
	"errors"
)

var (
	// ErrCommitConflict: another buyer depleted stock between
	// reconciliation and commit. The whole order attempt failed (no
	// partial fulfillment); the caller leaves the cart intact for retry.
	ErrCommitConflict = errors.New("order: stock changed during commit")
)

// Committer is the external atomic decrement-and-persist boundary.
//
// Contract:
// - the whole draft commits or nothing does (fails closed)
// - per line item the decrement is conditional on sufficient stock
// - invoked only after payment success; this engine does not verify payment
type Committer interface {
	Commit(ctx context.Context, avatarID string, d Draft) (Order, error)
}
