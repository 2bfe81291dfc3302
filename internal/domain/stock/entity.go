// internal/domain/stock/entity.go
package stock

import (
	"sort"
	"strings"
	"time"
)

// ProductStock は 1 商品の在庫ビューを表します。
// 二つのスキーマ世代を同時に許容する:
// - current: product_variants(variant_key, stock) の行を Variants に持つ
// - legacy : products.stock のフラット値のみ（FlatStock）
type ProductStock struct {
	ProductID string

	// Exists is false when the product row itself is gone.
	Exists bool

	// ProductName / UnitPrice are carried for messaging and price snapshots.
	ProductName string
	UnitPrice   int

	// FlatStock is the legacy flat stock column (used only when no
	// variants resolve).
	FlatStock int

	// Variants: variantKey -> stock.
	Variants map[string]int

	// DeclaredVariants lists variant keys the product claims to sell,
	// whether or not a stock row exists for them (data-migration gap
	// detection).
	DeclaredVariants []string
}

// Resolution reports how an availability figure was derived.
type Resolution struct {
	Available int

	// Degraded marks the declared-variant-without-stock-row case: the
	// product claims the variant but no row resolves. Treated as zero
	// available, but it is a data-integrity signal, not normal stock-out.
	Degraded bool
}

// Resolve computes available quantity for an optional variant key with the
// fixed priority: variant-specific → aggregate-across-variants → legacy
// flat field → zero.
func (p ProductStock) Resolve(variantKey string) Resolution {
	if !p.Exists {
		return Resolution{}
	}

	vk := strings.TrimSpace(variantKey)
	if vk != "" {
		if n, ok := p.Variants[vk]; ok {
			return Resolution{Available: n}
		}
		if p.declares(vk) {
			// declared but no stock row: safe default 0, flagged
			return Resolution{Available: 0, Degraded: true}
		}
		return Resolution{Available: 0}
	}

	if len(p.Variants) > 0 {
		sum := 0
		for _, n := range p.Variants {
			sum += n
		}
		return Resolution{Available: sum}
	}

	if p.FlatStock > 0 {
		return Resolution{Available: p.FlatStock}
	}
	return Resolution{Available: 0}
}

func (p ProductStock) declares(variantKey string) bool {
	for _, v := range p.DeclaredVariants {
		if strings.TrimSpace(v) == variantKey {
			return true
		}
	}
	return false
}

// Snapshot is the ephemeral result of one oracle read; consumed by the
// mutation or reconciliation that requested it, then discarded (except for
// the ObservedStock cache on the line item).
type Snapshot struct {
	ProductID   string
	VariantKey  string
	ProductName string
	UnitPrice   int
	Available   int
	Degraded    bool
	Exists      bool
	AsOf        time.Time
}

// NormalizeIDs trims, dedupes and sorts product ids for a stable batched
// query shape.
func NormalizeIDs(raw []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
