// internal/domain/cart/repository_port.go
package cart

import "context"

// Repository is a persistence port for the cart ledger.
//
// Storage recommendation (Firestore):
// - collection: carts
// - docId: avatarId
// - fields: schemaVersion, items, discountCode, createdAt, updatedAt, expiresAt
//
// Versioning:
// - The persisted doc carries a schemaVersion. Implementations MUST treat an
//   unparseable or version-mismatched doc as "no cart" (empty state), never
//   as a load error: a stale blob from an old client must not break checkout.
//
// TTL:
// - Configure Firestore TTL on "expiresAt"; the domain refreshes it on each
//   mutation via touch().
type Repository interface {
	// GetByAvatarID returns (nil, nil) when no usable cart exists.
	GetByAvatarID(ctx context.Context, avatarID string) (*Ledger, error)

	// Upsert saves the ledger (create or update), full-doc overwrite.
	Upsert(ctx context.Context, l *Ledger) error

	// DeleteByAvatarID deletes the cart doc (e.g. after order commit).
	DeleteByAvatarID(ctx context.Context, avatarID string) error
}
