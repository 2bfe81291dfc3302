package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	dbcommon "threadline/internal/adapters/out/db/common"
	orderdom "threadline/internal/domain/order"
)

// OrderRepositoryPG implements order.Committer with PostgreSQL.
//
// Commit decrements stock and writes the order inside one transaction.
// Every decrement is conditional on remaining stock; the first line that
// cannot be covered rolls the whole transaction back with
// order.ErrCommitConflict.
type OrderRepositoryPG struct {
	DB *sql.DB
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db}
}

func (r *OrderRepositoryPG) Commit(ctx context.Context, avatarID string, d orderdom.Draft) (orderdom.Order, error) {
	avatarID = strings.TrimSpace(avatarID)
	if avatarID == "" {
		return orderdom.Order{}, fmt.Errorf("db: commit requires avatarID")
	}
	if len(d.Items) == 0 {
		return orderdom.Order{}, orderdom.ErrEmptyDraft
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return orderdom.Order{}, fmt.Errorf("db: begin commit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, it := range d.Items {
		aff, err := decrementStock(ctx, tx, it)
		if err != nil {
			return orderdom.Order{}, fmt.Errorf("db: decrement %s: %w", it.Identity, err)
		}
		if aff == 0 {
			log.Printf("[order_pg] commit conflict avatar=%s identity=%s qty=%d", avatarID, it.Identity, it.Quantity)
			return orderdom.Order{}, orderdom.ErrCommitConflict
		}
	}

	ord := orderdom.Order{
		ID:             uuid.NewString(),
		AvatarID:       avatarID,
		Items:          d.Items,
		Subtotal:       d.Subtotal,
		ShippingCharge: d.ShippingCharge,
		DiscountCode:   d.DiscountCode,
		Total:          d.Total,
		CreatedAt:      time.Now().UTC(),
	}

	const orderQ = `
INSERT INTO orders (
  id, avatar_id, subtotal, shipping_charge, discount_code, total, created_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7
)
`
	if _, err := tx.ExecContext(ctx, orderQ,
		ord.ID,
		ord.AvatarID,
		ord.Subtotal,
		ord.ShippingCharge,
		nullableCode(ord.DiscountCode),
		ord.Total,
		ord.CreatedAt,
	); err != nil {
		return orderdom.Order{}, fmt.Errorf("db: insert order: %w", err)
	}

	const itemQ = `
INSERT INTO order_items (
  order_id, product_id, variant_key, quantity, unit_price
) VALUES (
  $1, $2, $3, $4, $5
)
`
	for _, it := range ord.Items {
		if _, err := tx.ExecContext(ctx, itemQ,
			ord.ID,
			it.ProductID,
			strings.TrimSpace(it.VariantKey),
			it.Quantity,
			it.UnitPrice,
		); err != nil {
			return orderdom.Order{}, fmt.Errorf("db: insert order item %s: %w", it.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return orderdom.Order{}, fmt.Errorf("db: commit tx: %w", err)
	}
	return ord, nil
}

// decrementStock takes qty from the variant row when the line carries a
// variant key, otherwise from the same pool the availability resolution
// admitted the line against.
func decrementStock(ctx context.Context, run dbcommon.Runner, it orderdom.DraftItem) (int64, error) {
	if key := strings.TrimSpace(it.VariantKey); key != "" {
		const q = `
UPDATE product_variants
SET stock = stock - $1
WHERE product_id = $2 AND variant_key = $3 AND stock >= $1
`
		res, err := run.ExecContext(ctx, q, it.Quantity, it.ProductID, key)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}
	return decrementAggregate(ctx, run, it.ProductID, it.Quantity)
}

// decrementAggregate handles a line without a variant key. A variant-bearing
// product was admitted against the aggregate across its variant rows, so the
// decrement spreads over those rows (fullest first); only a product with no
// variant rows at all decrements the legacy flat column. Returns 0 affected
// when the pool cannot cover the line.
func decrementAggregate(ctx context.Context, run dbcommon.Runner, productID string, qty int) (int64, error) {
	const sel = `
SELECT variant_key, stock
FROM product_variants
WHERE product_id = $1
ORDER BY stock DESC, variant_key
FOR UPDATE
`
	rows, err := run.QueryContext(ctx, sel, productID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var levels []variantLevel
	for rows.Next() {
		var (
			keyNS sql.NullString
			stock sql.NullInt64
		)
		if err := rows.Scan(&keyNS, &stock); err != nil {
			return 0, err
		}
		key := dbcommon.FromNullString(keyNS)
		if key == "" {
			continue
		}
		levels = append(levels, variantLevel{Key: key, Stock: int(stock.Int64)})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(levels) == 0 {
		const q = `
UPDATE products
SET stock = stock - $1
WHERE id = $2 AND stock >= $1
`
		res, err := run.ExecContext(ctx, q, qty, productID)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	draws, ok := planDrawdown(levels, qty)
	if !ok {
		return 0, nil
	}

	const q = `
UPDATE product_variants
SET stock = stock - $1
WHERE product_id = $2 AND variant_key = $3 AND stock >= $1
`
	for _, d := range draws {
		res, err := run.ExecContext(ctx, q, d.Take, productID, d.Key)
		if err != nil {
			return 0, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if aff == 0 {
			// row raced away between SELECT FOR UPDATE and here
			return 0, nil
		}
	}
	return 1, nil
}

type variantLevel struct {
	Key   string
	Stock int
}

type variantDraw struct {
	Key  string
	Take int
}

// planDrawdown spreads qty across the variant levels, fullest first.
// ok=false means the aggregate pool cannot cover the quantity.
func planDrawdown(levels []variantLevel, qty int) ([]variantDraw, bool) {
	if qty <= 0 {
		return nil, false
	}

	draws := make([]variantDraw, 0, len(levels))
	remaining := qty
	for _, lv := range levels {
		if remaining == 0 {
			break
		}
		if lv.Stock <= 0 {
			continue
		}
		take := lv.Stock
		if take > remaining {
			take = remaining
		}
		draws = append(draws, variantDraw{Key: lv.Key, Take: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, false
	}
	return draws, true
}

func nullableCode(code string) any {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return code
}
