package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "threadline/internal/domain/cart"
	"threadline/internal/domain/discount"
	orderdom "threadline/internal/domain/order"
	"threadline/internal/domain/stock"
)

func checkoutFixture(t *testing.T) (*fakeCartRepo, *fakeOracle, *fakeCommitter, *fakeMailer, *CheckoutUsecase) {
	t.Helper()
	repo := newFakeCartRepo()
	oracle := newFakeOracle(
		teeStock(),
		stock.ProductStock{ProductID: "hoodie", Exists: true, ProductName: "Zip Hoodie", UnitPrice: 4800, FlatStock: 9},
	)
	committer := &fakeCommitter{}
	mailer := &fakeMailer{}
	rates := discount.NewStaticRates(map[string]int{"VIP20": 20})

	uc := NewCheckoutUsecase(repo, NewReconcileUsecase(oracle), rates, committer, mailer)

	cartUC := newCartUC(repo, oracle, fakeGate{})
	_, err := cartUC.AddItem(context.Background(), "av-1", "tee", "M")
	require.NoError(t, err)
	_, err = cartUC.AddItem(context.Background(), "av-1", "hoodie", "")
	require.NoError(t, err)
	_, err = cartUC.ApplyDiscount(context.Background(), "av-1", "VIP20")
	require.NoError(t, err)

	return repo, oracle, committer, mailer, uc
}

func TestCheckoutCommitHappyPath(t *testing.T) {
	repo, _, committer, mailer, uc := checkoutFixture(t)

	res, err := uc.Commit(context.Background(), "av-1", "shopper@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Nil(t, res.Rejection)
	assert.Empty(t, res.Failures)

	ord := res.Order
	assert.Equal(t, "av-1", ord.AvatarID)
	assert.Equal(t, 6000, ord.Subtotal)
	assert.Equal(t, 0, ord.ShippingCharge)
	assert.Equal(t, "VIP20", ord.DiscountCode)
	assert.Equal(t, 4800, ord.Total)
	require.Len(t, ord.Items, 2)

	require.Len(t, committer.committed, 1)
	assert.Equal(t, "shopper@example.com", mailer.sent[0])

	stored, err := repo.GetByAvatarID(context.Background(), "av-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestCheckoutCommitConflictLeavesCartIntact(t *testing.T) {
	repo, _, committer, mailer, uc := checkoutFixture(t)
	committer.err = orderdom.ErrCommitConflict

	res, err := uc.Commit(context.Background(), "av-1", "shopper@example.com")
	require.NoError(t, err)
	assert.Nil(t, res.Order)
	require.NotNil(t, res.Rejection)
	assert.Equal(t, cartdom.ReasonInsufficientStock, res.Rejection.Reason)
	assert.True(t, res.Rejection.Retryable)

	stored, err := repo.GetByAvatarID(context.Background(), "av-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 2)
	assert.Empty(t, mailer.sent)
}

func TestCheckoutCommitBlockedByReconcile(t *testing.T) {
	repo, oracle, committer, _, uc := checkoutFixture(t)
	tee := oracle.products["tee"]
	tee.Variants = map[string]int{"M": 0, "L": 0}
	oracle.products["tee"] = tee

	res, err := uc.Commit(context.Background(), "av-1", "shopper@example.com")
	require.NoError(t, err)
	assert.Nil(t, res.Order)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "tee:M", res.Failures[0].Identity)
	assert.Empty(t, committer.committed)

	stored, err := repo.GetByAvatarID(context.Background(), "av-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCheckoutCommitOracleOutage(t *testing.T) {
	_, oracle, committer, _, uc := checkoutFixture(t)
	oracle.manyErr = errors.New("unavailable")

	res, err := uc.Commit(context.Background(), "av-1", "shopper@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Rejection)
	assert.Equal(t, cartdom.ReasonOracleUnavailable, res.Rejection.Reason)
	assert.Empty(t, committer.committed)
}

func TestCheckoutCommitEmptyCart(t *testing.T) {
	repo := newFakeCartRepo()
	uc := NewCheckoutUsecase(repo, NewReconcileUsecase(newFakeOracle()), discount.NewStaticRates(nil), &fakeCommitter{}, nil)

	_, err := uc.Commit(context.Background(), "av-1", "")
	assert.ErrorIs(t, err, ErrCheckoutEmptyCart)

	_, err = uc.Commit(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrCheckoutInvalidArgument)
}

func TestCheckoutCommitMailFailureDoesNotFailOrder(t *testing.T) {
	_, _, _, mailer, uc := checkoutFixture(t)
	mailer.err = errors.New("smtp down")

	res, err := uc.Commit(context.Background(), "av-1", "shopper@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Empty(t, mailer.sent)
}

func TestCheckoutReconcilePassesVerdict(t *testing.T) {
	_, oracle, _, _, uc := checkoutFixture(t)

	res, err := uc.Reconcile(context.Background(), "av-1")
	require.NoError(t, err)
	assert.Empty(t, res.Failures)

	hoodie := oracle.products["hoodie"]
	hoodie.FlatStock = 0
	oracle.products["hoodie"] = hoodie

	res, err = uc.Reconcile(context.Background(), "av-1")
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "hoodie", res.Failures[0].Identity)
}
