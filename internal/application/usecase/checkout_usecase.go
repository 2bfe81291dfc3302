// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	cartdom "threadline/internal/domain/cart"
	"threadline/internal/domain/discount"
	orderdom "threadline/internal/domain/order"
)

var (
	ErrCheckoutInvalidArgument = errors.New("checkout_usecase: invalid argument")
	ErrCheckoutEmptyCart       = errors.New("checkout_usecase: cart is empty")
)

// OrderMailer sends the confirmation mail after a successful commit.
// Strictly best-effort: a mail failure never fails the order.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, to string, ord orderdom.Order) error
}

// CheckoutResult is the outcome of a checkout step.
// Exactly one of Order / Failures / Rejection is meaningful:
// - Failures non-empty -> reconciliation blocked checkout, cart untouched
// - Rejection          -> commit-time refusal (conflict), cart untouched
// - Order              -> committed; cart has been cleared
type CheckoutResult struct {
	Order     *orderdom.Order    `json:"order,omitempty"`
	Failures  []ItemFailure      `json:"failures,omitempty"`
	Rejection *cartdom.Rejection `json:"rejection,omitempty"`
}

// CheckoutUsecase orchestrates "reconcile -> draft -> commit -> clear".
//
// 責務の分離:
// - ReconcileUsecase: 在庫ゲート（読むだけ）
// - Committer:        原子的 decrement + order 永続化（外部境界）
// - ここ:             その間のオーケストレーションのみ
type CheckoutUsecase struct {
	cartRepo  cartdom.Repository
	reconcile *ReconcileUsecase
	rates     discount.RateLookup
	committer orderdom.Committer
	mailer    OrderMailer
}

func NewCheckoutUsecase(
	cartRepo cartdom.Repository,
	reconcile *ReconcileUsecase,
	rates discount.RateLookup,
	committer orderdom.Committer,
	mailer OrderMailer,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		cartRepo:  cartRepo,
		reconcile: reconcile,
		rates:     rates,
		committer: committer,
		mailer:    mailer,
	}
}

// Reconcile runs the pre-checkout gate for the avatar's cart without
// committing anything.
func (uc *CheckoutUsecase) Reconcile(ctx context.Context, avatarID string) (CheckoutResult, error) {
	l, err := uc.loadCart(ctx, avatarID)
	if err != nil {
		return CheckoutResult{}, err
	}

	failures, err := uc.reconcile.Reconcile(ctx, l)
	if err != nil {
		if errors.Is(err, ErrReconcileOracle) {
			return CheckoutResult{Rejection: cartdom.RejectOracleUnavailable()}, nil
		}
		return CheckoutResult{}, err
	}
	return CheckoutResult{Failures: failures}, nil
}

// Commit finalizes the order after payment success:
// re-reconcile -> immutable draft -> atomic commit -> clear cart -> mail.
//
// On ErrCommitConflict (stock raced away between reconcile and commit) the
// cart is left fully intact so the shopper can retry; no partial
// fulfillment, no quantity auto-adjustment.
func (uc *CheckoutUsecase) Commit(ctx context.Context, avatarID, email string) (CheckoutResult, error) {
	l, err := uc.loadCart(ctx, avatarID)
	if err != nil {
		return CheckoutResult{}, err
	}

	failures, err := uc.reconcile.Reconcile(ctx, l)
	if err != nil {
		if errors.Is(err, ErrReconcileOracle) {
			return CheckoutResult{Rejection: cartdom.RejectOracleUnavailable()}, nil
		}
		return CheckoutResult{}, err
	}
	if len(failures) > 0 {
		return CheckoutResult{Failures: failures}, nil
	}

	rate := uc.rates.Rate(ctx, l.DiscountCode)
	draft, err := orderdom.BuildDraft(l, rate)
	if err != nil {
		return CheckoutResult{}, err
	}

	ord, err := uc.committer.Commit(ctx, l.ID, draft)
	if err != nil {
		if errors.Is(err, orderdom.ErrCommitConflict) {
			log.Printf("[checkout_uc] commit conflict avatarId=%s (cart left intact for retry)", l.ID)
			return CheckoutResult{Rejection: &cartdom.Rejection{
				Reason:    cartdom.ReasonInsufficientStock,
				Message:   "stock changed while completing your order, please review your cart and retry",
				Retryable: true,
			}}, nil
		}
		return CheckoutResult{}, err
	}

	// order committed: consume the cart
	if err := uc.cartRepo.DeleteByAvatarID(ctx, l.ID); err != nil {
		// order exists; a stale cart doc is annoying but recoverable
		log.Printf("[checkout_uc] WARN: cart delete after commit failed avatarId=%s orderId=%s err=%v", l.ID, ord.ID, err)
	}

	uc.sendConfirmation(ctx, email, ord)

	log.Printf("[checkout_uc] OK: order committed avatarId=%s orderId=%s total=%d items=%d", l.ID, ord.ID, ord.Total, len(ord.Items))
	return CheckoutResult{Order: &ord}, nil
}

// ----------------------------
// Internal
// ----------------------------

func (uc *CheckoutUsecase) loadCart(ctx context.Context, avatarID string) (*cartdom.Ledger, error) {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return nil, ErrCheckoutInvalidArgument
	}

	l, err := uc.cartRepo.GetByAvatarID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if l == nil || len(l.Items) == 0 {
		return nil, ErrCheckoutEmptyCart
	}
	return l, nil
}

func (uc *CheckoutUsecase) sendConfirmation(ctx context.Context, email string, ord orderdom.Order) {
	to := strings.TrimSpace(email)
	if uc.mailer == nil || to == "" {
		return
	}
	if err := uc.mailer.SendOrderConfirmation(ctx, to, ord); err != nil {
		log.Printf("[checkout_uc] WARN: confirmation mail failed orderId=%s to=%s err=%v", ord.ID, to, err)
	}
}
