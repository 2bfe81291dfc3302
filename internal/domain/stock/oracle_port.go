// internal/domain/stock/oracle_port.go
package stock

import "context"

// ------------------------------------------------------
// Oracle Port (read-only source of truth for inventory)
// ------------------------------------------------------
//
// Hexagonal の「出力ポート」。Postgres 実装は adapters/out/db 側。
// このエンジンは在庫を読むだけで、決して書かない（decrement は Order
// Commit の責務）。
type Oracle interface {
	// Snapshot resolves availability for one (productId, variantKey).
	// A missing product returns Exists=false, not an error.
	Snapshot(ctx context.Context, productID, variantKey string) (Snapshot, error)

	// SnapshotMany issues ONE batched read across distinct product ids
	// (reconciliation path). Missing products are simply absent from the
	// result map.
	SnapshotMany(ctx context.Context, productIDs []string) (map[string]ProductStock, error)
}
