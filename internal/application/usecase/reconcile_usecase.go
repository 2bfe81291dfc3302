// internal/application/usecase/reconcile_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	cartdom "threadline/internal/domain/cart"
	"threadline/internal/domain/stock"
)

var (
	ErrReconcileInvalidArgument = errors.New("reconcile_usecase: invalid argument")
	ErrReconcileOracle          = errors.New("reconcile_usecase: stock oracle unavailable")
)

// ReconcileTimeout bounds the single batched oracle read.
const ReconcileTimeout = 5 * time.Second

// ItemFailure reports one line item that blocks checkout.
type ItemFailure struct {
	Identity    string             `json:"identity"`
	ProductID   string             `json:"productId"`
	VariantKey  string             `json:"variantKey,omitempty"`
	ProductName string             `json:"productName"`
	Rejection   *cartdom.Rejection `json:"rejection"`
}

// ReconcileUsecase is the authoritative pre-checkout stock gate.
//
// One batched read across distinct product ids (never one query per line
// item); per item the availability is recomputed with the same
// variant -> aggregate -> legacy-flat priority as the add path.
//
// It is a GATE, not a refresh: the ledger is never mutated here, not even
// its ObservedStock caches. A recheck must never silently change what the
// shopper sees in the cart.
type ReconcileUsecase struct {
	oracle stock.Oracle
}

func NewReconcileUsecase(oracle stock.Oracle) *ReconcileUsecase {
	return &ReconcileUsecase{oracle: oracle}
}

// Reconcile returns the full list of failing items (empty = checkout may
// proceed). Oracle outage is an error (retryable), distinct from any
// stock-based failure.
func (uc *ReconcileUsecase) Reconcile(ctx context.Context, l *cartdom.Ledger) ([]ItemFailure, error) {
	if l == nil {
		return nil, ErrReconcileInvalidArgument
	}
	if len(l.Items) == 0 {
		return nil, nil
	}

	ids := stock.NormalizeIDs(l.DistinctProductIDs())

	rctx, cancel := context.WithTimeout(ctx, ReconcileTimeout)
	defer cancel()

	byProduct, err := uc.oracle.SnapshotMany(rctx, ids)
	if err != nil {
		log.Printf("[reconcile_uc] WARN: batched oracle read failed products=%d err=%v", len(ids), err)
		return nil, fmt.Errorf("%w: %v", ErrReconcileOracle, err)
	}

	var failures []ItemFailure
	for _, it := range l.Items {
		ps, ok := byProduct[it.ProductID]
		if !ok || !ps.Exists {
			failures = append(failures, ItemFailure{
				Identity:    it.Identity(),
				ProductID:   it.ProductID,
				VariantKey:  it.VariantKey,
				ProductName: it.ProductName,
				Rejection:   cartdom.RejectProductUnavailable(it.ProductName),
			})
			continue
		}

		res := ps.Resolve(it.VariantKey)
		if res.Degraded {
			log.Printf("[reconcile_uc] DATA: variant declared but no stock row productId=%s variantKey=%q", it.ProductID, it.VariantKey)
		}
		if res.Available < it.Quantity {
			failures = append(failures, ItemFailure{
				Identity:    it.Identity(),
				ProductID:   it.ProductID,
				VariantKey:  it.VariantKey,
				ProductName: it.ProductName,
				Rejection:   cartdom.RejectInsufficientStock(it.ProductName, res.Available),
			})
		}
	}

	if len(failures) > 0 {
		log.Printf("[reconcile_uc] blocked avatarId=%s failing=%d of %d", l.ID, len(failures), len(l.Items))
	}
	return failures, nil
}
