package httpin

import (
	"net/http"

	"threadline/internal/adapters/in/http/middleware"
	storefrontHandler "threadline/internal/adapters/in/http/storefront/handler"
	usecase "threadline/internal/application/usecase"
	"threadline/internal/domain/discount"
)

// RouterDeps collects all usecases (and other dependencies) injected from main.go.
type RouterDeps struct {
	CartUC     *usecase.CartUsecase
	CheckoutUC *usecase.CheckoutUsecase
	Rates      discount.RateLookup

	// FirebaseAuth が nil のときは認証ミドルウェアを外す（ローカル開発用）。
	FirebaseAuth *middleware.FirebaseAuthClient
}

// NewRouter sets up HTTP routing for the storefront endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// 以降、Usecase が存在するものだけマウントする
	if deps.CartUC != nil {
		mux.Handle("/storefront/cart", authWrap(deps, storefrontHandler.NewCartHandler(deps.CartUC, deps.Rates)))
		mux.Handle("/storefront/cart/", authWrap(deps, storefrontHandler.NewCartHandler(deps.CartUC, deps.Rates)))
	}

	if deps.CheckoutUC != nil {
		mux.Handle("/storefront/checkout/", authWrap(deps, storefrontHandler.NewCheckoutHandler(deps.CheckoutUC)))
	}

	return mux
}

func authWrap(deps RouterDeps, next http.Handler) http.Handler {
	if deps.FirebaseAuth == nil {
		return next
	}
	m := &middleware.UserAuthMiddleware{FirebaseAuth: deps.FirebaseAuth}
	return m.Handler(next)
}
