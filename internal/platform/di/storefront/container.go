// internal/platform/di/storefront/container.go
package storefront

import (
	"context"
	"errors"
	"net/http"

	httpin "threadline/internal/adapters/in/http"
	pgrepo "threadline/internal/adapters/out/db"
	fsrepo "threadline/internal/adapters/out/firestore"
	"threadline/internal/adapters/out/mail"
	usecase "threadline/internal/application/usecase"
	"threadline/internal/domain/discount"
	"threadline/internal/platform/di/shared"
)

// Container wires the storefront stack: Firestore-backed cart ledger,
// Postgres-backed stock oracle / settings gate / order committer, and the
// SendGrid confirmation mailer.
type Container struct {
	Infra *shared.Infra

	Rates      discount.RateLookup
	CartUC     *usecase.CartUsecase
	CheckoutUC *usecase.CheckoutUsecase
}

func NewContainer(ctx context.Context, inf *shared.Infra) (*Container, error) {
	if inf == nil {
		return nil, errors.New("di.storefront: infra is nil")
	}
	if inf.Firestore == nil {
		return nil, errors.New("di.storefront: firestore client is nil")
	}
	if inf.DB == nil || inf.DB.Client == nil {
		return nil, errors.New("di.storefront: db pool is nil")
	}

	cartRepo := fsrepo.NewCartRepositoryFS(inf.Firestore)
	oracle := pgrepo.NewStockRepositoryPG(inf.DB.Client)
	gate := pgrepo.NewStoreConfigRepositoryPG(inf.DB.Client)
	committer := pgrepo.NewOrderRepositoryPG(inf.DB.Client)

	// discount_codes テーブルが正、env/static テーブルはフォールバック
	rates := pgrepo.NewDiscountRepositoryPG(inf.DB.Client, buildRates())

	sgKey := resolveSendGridKey(ctx, inf)
	mailer := mail.NewOrderMailerWithSendGrid(sgKey)

	cartUC := usecase.NewCartUsecase(cartRepo, oracle, gate)
	reconcileUC := usecase.NewReconcileUsecase(oracle)
	checkoutUC := usecase.NewCheckoutUsecase(cartRepo, reconcileUC, rates, committer, mailer)

	return &Container{
		Infra:      inf,
		Rates:      rates,
		CartUC:     cartUC,
		CheckoutUC: checkoutUC,
	}, nil
}

// Router builds the HTTP handler tree for this container.
func (c *Container) Router() http.Handler {
	return httpin.NewRouter(httpin.RouterDeps{
		CartUC:       c.CartUC,
		CheckoutUC:   c.CheckoutUC,
		Rates:        c.Rates,
		FirebaseAuth: c.Infra.FirebaseAuth,
	})
}
