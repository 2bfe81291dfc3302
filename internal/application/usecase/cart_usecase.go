// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	cartdom "threadline/internal/domain/cart"
	"threadline/internal/domain/stock"
	"threadline/internal/domain/storeconfig"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
	ErrCartNotFound        = errors.New("cart_usecase: not found")
	ErrCartItemNotFound    = errors.New("cart_usecase: line item not found")
)

// OracleTimeout bounds every stock-oracle read issued by cart mutations.
// Timeouts surface as a retryable ORACLE_UNAVAILABLE rejection, never as a
// stock-based one.
const OracleTimeout = 3 * time.Second

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MutationResult is what every mutating cart operation hands back to the
// HTTP layer:
// - Rejection != nil -> refused, Ledger reflects the UNCHANGED state
// - Notice           -> user-visible confirmation naming the product
type MutationResult struct {
	Ledger    *cartdom.Ledger
	Rejection *cartdom.Rejection
	Notice    string
}

// CartUsecase coordinates ledger mutations with the stock oracle and the
// storewide purchasing gate.
//
// Two read paths, deliberately separate:
// - AddItem does a FRESH oracle read (per-identity, bounded timeout)
// - SetQuantity trusts the cached ObservedStock on the line item
// Conflating them would hide the staleness tradeoff (see reconcile_usecase
// for the authoritative pre-checkout read).
type CartUsecase struct {
	repo   cartdom.Repository
	oracle stock.Oracle
	gate   storeconfig.Gate
	clock  Clock
}

func NewCartUsecase(repo cartdom.Repository, oracle stock.Oracle, gate storeconfig.Gate) *CartUsecase {
	return &CartUsecase{
		repo:   repo,
		oracle: oracle,
		gate:   gate,
		clock:  systemClock{},
	}
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(repo cartdom.Repository, oracle stock.Oracle, gate storeconfig.Gate, clock Clock) *CartUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &CartUsecase{repo: repo, oracle: oracle, gate: gate, clock: clock}
}

// Get returns the ledger for avatarID.
// If none exists, returns (nil, ErrCartNotFound).
func (uc *CartUsecase) Get(ctx context.Context, avatarID string) (*cartdom.Ledger, error) {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return nil, ErrCartInvalidArgument
	}

	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrCartNotFound
	}
	return l, nil
}

// GetOrCreate returns an existing ledger; if absent, creates an empty one
// and persists it.
func (uc *CartUsecase) GetOrCreate(ctx context.Context, avatarID string) (*cartdom.Ledger, error) {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return nil, ErrCartInvalidArgument
	}

	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if l != nil {
		return l, nil
	}

	now := uc.clock.Now()
	fresh, err := cartdom.NewLedger(aid, now)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Upsert(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// AddItem adds one unit of (productID, variantKey):
// gate check -> fresh oracle read -> merge-or-insert -> upsert.
func (uc *CartUsecase) AddItem(ctx context.Context, avatarID, productID, variantKey string) (MutationResult, error) {
	aid := strings.TrimSpace(avatarID)
	pid := strings.TrimSpace(productID)
	if aid == "" || pid == "" {
		return MutationResult{}, ErrCartInvalidArgument
	}

	if !uc.gate.PurchasingEnabled(ctx) {
		log.Printf("[cart_uc] add-item rejected store-closed avatarId=%s productId=%s", aid, pid)
		return MutationResult{Rejection: cartdom.RejectStoreClosed()}, nil
	}

	snap, rej := uc.readSnapshot(ctx, pid, variantKey)
	if rej != nil {
		return MutationResult{Rejection: rej}, nil
	}
	if !snap.Exists {
		log.Printf("[cart_uc] add-item rejected product-unavailable avatarId=%s productId=%s", aid, pid)
		return MutationResult{Rejection: cartdom.RejectProductUnavailable(snap.ProductName)}, nil
	}

	now := uc.clock.Now()
	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return MutationResult{}, err
	}
	if l == nil {
		l, err = cartdom.NewLedger(aid, now)
		if err != nil {
			return MutationResult{}, err
		}
	}

	identity := cartdom.Identity(pid, variantKey)
	if l.Find(identity) >= 0 {
		rej, err = l.Increment(identity, snap.Available, now)
	} else {
		rej, err = l.AddNew(pid, variantKey, snap.ProductName, snap.UnitPrice, snap.Available, now)
	}
	if err != nil {
		return MutationResult{}, err
	}
	if rej != nil {
		return MutationResult{Ledger: l, Rejection: rej}, nil
	}

	if err := uc.repo.Upsert(ctx, l); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{
		Ledger: l,
		Notice: fmt.Sprintf("%s added to cart", noticeName(snap.ProductName)),
	}, nil
}

// SetQuantity sets the quantity for an existing line item, optimistically
// (cached ObservedStock, no oracle read).
// qty <= 0 is rejected with INVALID_QUANTITY; removal is a separate call.
func (uc *CartUsecase) SetQuantity(ctx context.Context, avatarID, identity string, qty int) (MutationResult, error) {
	aid := strings.TrimSpace(avatarID)
	iid := strings.TrimSpace(identity)
	if aid == "" || iid == "" {
		return MutationResult{}, ErrCartInvalidArgument
	}

	if !uc.gate.PurchasingEnabled(ctx) {
		log.Printf("[cart_uc] set-qty rejected store-closed avatarId=%s identity=%s", aid, iid)
		return MutationResult{Rejection: cartdom.RejectStoreClosed()}, nil
	}

	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return MutationResult{}, err
	}
	if l == nil {
		return MutationResult{}, ErrCartNotFound
	}
	if l.Find(iid) < 0 {
		return MutationResult{}, ErrCartItemNotFound
	}

	rej, err := l.SetQuantity(iid, qty, uc.clock.Now())
	if err != nil {
		return MutationResult{}, err
	}
	if rej != nil {
		return MutationResult{Ledger: l, Rejection: rej}, nil
	}

	if err := uc.repo.Upsert(ctx, l); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Ledger: l}, nil
}

// RemoveItem removes the line item unconditionally (no-op when absent).
// Removal stays possible while the store is closed: shoppers can always
// shrink their cart.
func (uc *CartUsecase) RemoveItem(ctx context.Context, avatarID, identity string) (MutationResult, error) {
	aid := strings.TrimSpace(avatarID)
	iid := strings.TrimSpace(identity)
	if aid == "" || iid == "" {
		return MutationResult{}, ErrCartInvalidArgument
	}

	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return MutationResult{}, err
	}
	if l == nil {
		return MutationResult{}, ErrCartNotFound
	}

	removed, ok := l.Remove(iid, uc.clock.Now())
	if !ok {
		return MutationResult{Ledger: l}, nil
	}

	if err := uc.repo.Upsert(ctx, l); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{
		Ledger: l,
		Notice: fmt.Sprintf("%s removed from cart", noticeName(removed.ProductName)),
	}, nil
}

// ApplyDiscount overwrites any existing code (no stacking, no validation
// at this layer; unknown codes price at 0%).
func (uc *CartUsecase) ApplyDiscount(ctx context.Context, avatarID, code string) (MutationResult, error) {
	aid := strings.TrimSpace(avatarID)
	c := strings.TrimSpace(code)
	if aid == "" || c == "" {
		return MutationResult{}, ErrCartInvalidArgument
	}

	if !uc.gate.PurchasingEnabled(ctx) {
		return MutationResult{Rejection: cartdom.RejectStoreClosed()}, nil
	}

	l, err := uc.GetOrCreate(ctx, aid)
	if err != nil {
		return MutationResult{}, err
	}

	l.ApplyDiscount(c, uc.clock.Now())
	if err := uc.repo.Upsert(ctx, l); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{
		Ledger: l,
		Notice: fmt.Sprintf("discount code %s applied", l.DiscountCode),
	}, nil
}

// RemoveDiscount clears the active code; the notice is emitted only when a
// code was actually present.
func (uc *CartUsecase) RemoveDiscount(ctx context.Context, avatarID string) (MutationResult, error) {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return MutationResult{}, ErrCartInvalidArgument
	}

	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return MutationResult{}, err
	}
	if l == nil {
		return MutationResult{}, ErrCartNotFound
	}

	had := l.RemoveDiscount(uc.clock.Now())
	if !had {
		return MutationResult{Ledger: l}, nil
	}

	if err := uc.repo.Upsert(ctx, l); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Ledger: l, Notice: "discount code removed"}, nil
}

// Clear empties the items (the discount code survives; see domain policy).
func (uc *CartUsecase) Clear(ctx context.Context, avatarID string) (MutationResult, error) {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return MutationResult{}, ErrCartInvalidArgument
	}

	l, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return MutationResult{}, err
	}
	if l == nil {
		return MutationResult{}, ErrCartNotFound
	}

	l.Clear(uc.clock.Now())
	if err := uc.repo.Upsert(ctx, l); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Ledger: l, Notice: "cart cleared"}, nil
}

// ----------------------------
// Internal
// ----------------------------

// readSnapshot wraps the oracle read with the bounded timeout and maps
// every infra failure to the retryable ORACLE_UNAVAILABLE rejection.
func (uc *CartUsecase) readSnapshot(ctx context.Context, productID, variantKey string) (stock.Snapshot, *cartdom.Rejection) {
	rctx, cancel := context.WithTimeout(ctx, OracleTimeout)
	defer cancel()

	snap, err := uc.oracle.Snapshot(rctx, productID, variantKey)
	if err != nil {
		log.Printf("[cart_uc] WARN: oracle read failed productId=%s variantKey=%q err=%v", productID, variantKey, err)
		return stock.Snapshot{}, cartdom.RejectOracleUnavailable()
	}

	if snap.Degraded {
		// declared variant without a stock row: data-integrity signal,
		// shopper still just sees a stock message
		log.Printf("[cart_uc] DATA: variant declared but no stock row productId=%s variantKey=%q", productID, variantKey)
	}
	return snap, nil
}

func noticeName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "item"
	}
	return name
}
