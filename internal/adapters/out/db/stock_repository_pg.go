package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	dbcommon "threadline/internal/adapters/out/db/common"
	stockdom "threadline/internal/domain/stock"
)

// StockRepositoryPG implements stock.Oracle with PostgreSQL.
//
// products holds the catalog row per product. stock is the legacy flat
// column kept for products that never declared variants. declared_variants
// is the catalog-side variant list; live per-variant counts come from
// product_variants.
type StockRepositoryPG struct {
	DB *sql.DB
}

func NewStockRepositoryPG(db *sql.DB) *StockRepositoryPG {
	return &StockRepositoryPG{DB: db}
}

// =======================
// Queries
// =======================

func (r *StockRepositoryPG) Snapshot(ctx context.Context, productID, variantKey string) (stockdom.Snapshot, error) {
	productID = strings.TrimSpace(productID)
	variantKey = strings.TrimSpace(variantKey)
	if productID == "" {
		return stockdom.Snapshot{}, fmt.Errorf("db: snapshot requires productID")
	}

	many, err := r.SnapshotMany(ctx, []string{productID})
	if err != nil {
		return stockdom.Snapshot{}, err
	}

	now := time.Now().UTC()
	ps, ok := many[productID]
	if !ok {
		return stockdom.Snapshot{
			ProductID:  productID,
			VariantKey: variantKey,
			AsOf:       now,
		}, nil
	}

	res := ps.Resolve(variantKey)
	return stockdom.Snapshot{
		ProductID:   productID,
		VariantKey:  variantKey,
		ProductName: ps.ProductName,
		UnitPrice:   ps.UnitPrice,
		Available:   res.Available,
		Degraded:    res.Degraded,
		Exists:      ps.Exists,
		AsOf:        now,
	}, nil
}

func (r *StockRepositoryPG) SnapshotMany(ctx context.Context, productIDs []string) (map[string]stockdom.ProductStock, error) {
	ids := dbcommon.TrimStrings(productIDs)
	out := make(map[string]stockdom.ProductStock, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const productQ = `
SELECT id, name, unit_price, stock, declared_variants, published
FROM products
WHERE id = ANY($1)
`
	rows, err := r.DB.QueryContext(ctx, productQ, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("db: query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idNS, nameNS     sql.NullString
			unitPrice, stock sql.NullInt64
			declared         pq.StringArray
			published        sql.NullBool
		)
		if err := rows.Scan(&idNS, &nameNS, &unitPrice, &stock, &declared, &published); err != nil {
			return nil, fmt.Errorf("db: scan product: %w", err)
		}
		id := dbcommon.FromNullString(idNS)
		if id == "" {
			continue
		}
		out[id] = stockdom.ProductStock{
			ProductID:        id,
			Exists:           published.Valid && published.Bool,
			ProductName:      dbcommon.FromNullString(nameNS),
			UnitPrice:        int(unitPrice.Int64),
			FlatStock:        int(stock.Int64),
			Variants:         map[string]int{},
			DeclaredVariants: dbcommon.TrimStrings(declared),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate products: %w", err)
	}

	const variantQ = `
SELECT product_id, variant_key, stock
FROM product_variants
WHERE product_id = ANY($1)
`
	vrows, err := r.DB.QueryContext(ctx, variantQ, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("db: query product_variants: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			pidNS, keyNS sql.NullString
			stock        sql.NullInt64
		)
		if err := vrows.Scan(&pidNS, &keyNS, &stock); err != nil {
			return nil, fmt.Errorf("db: scan product_variant: %w", err)
		}
		pid := dbcommon.FromNullString(pidNS)
		key := dbcommon.FromNullString(keyNS)
		if pid == "" || key == "" {
			continue
		}
		ps, ok := out[pid]
		if !ok {
			// variant row without a catalog row: not sellable, skip
			continue
		}
		ps.Variants[key] = int(stock.Int64)
		out[pid] = ps
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate product_variants: %w", err)
	}

	return out, nil
}
