// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "threadline/internal/domain/cart"
)

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: avatarId  ✅ (docId is the source of truth)
// - fields: schemaVersion, items(array), discountCode, createdAt, updatedAt, expiresAt
//
// TTL:
// - Configure Firestore TTL on "expiresAt".
//
// Versioning policy:
// - Docs carry schemaVersion (= cartDocSchemaVersion on write).
// - A doc with an unknown version, or one that fails to parse, is treated
//   as "no cart" (returns nil) instead of an error: a stale blob from an
//   old client must never break the storefront.
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

// GetByAvatarID returns (nil, nil) if not found or unusable (nil policy).
func (r *CartRepositoryFS) GetByAvatarID(ctx context.Context, avatarID string) (*cartdom.Ledger, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return nil, errors.New("cart_repository_fs: avatarID is empty")
	}

	snap, err := r.col().Doc(aid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	// snap.Data() + hand parsing: DataTo(&struct{...}) breaks with a 500
	// when an older client wrote a different items shape. Decode
	// defensively and fall back to empty.
	doc, ok := cartDocFromSnapshot(snap)
	if !ok {
		log.Printf("[cart_repository_fs] unusable cart doc avatarId=%s (treated as empty)", aid)
		return nil, nil
	}

	l := doc.toDomain()
	// docId is the source of truth even when the doc body lacks id
	l.ID = aid
	return l, nil
}

// Upsert saves the ledger by docId=l.ID (= avatarId), full-doc overwrite
// (simple & predictable).
func (r *CartRepositoryFS) Upsert(ctx context.Context, l *cartdom.Ledger) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	if l == nil {
		return errors.New("cart_repository_fs: ledger is nil")
	}

	aid := strings.TrimSpace(l.ID)
	if aid == "" {
		return errors.New("cart_repository_fs: Upsert requires ledger.ID (= avatarId) as docId")
	}

	_, err := r.col().Doc(aid).Set(ctx, cartDocFromDomain(l))
	return err
}

func (r *CartRepositoryFS) DeleteByAvatarID(ctx context.Context, avatarID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return errors.New("cart_repository_fs: avatarID is empty")
	}

	_, err := r.col().Doc(aid).Delete(ctx)
	return err
}
