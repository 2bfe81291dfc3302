// internal/adapters/in/http/storefront/handler/checkout_handler.go
package storefrontHandler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"threadline/internal/adapters/in/http/middleware"
	usecase "threadline/internal/application/usecase"
)

// CheckoutHandler serves the pre-checkout reconciliation pass and the
// order commit handoff.
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) http.Handler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")

	log.Printf("[storefront_checkout_handler] enter method=%s path=%q configured(uc=%t)\n", r.Method, path, h.uc != nil)

	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "checkout handler is not configured")
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch {
	case strings.HasSuffix(path, "/checkout/reconcile"):
		h.handleReconcile(w, r, start)
	case strings.HasSuffix(path, "/checkout/commit"):
		h.handleCommit(w, r, start)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

// handleReconcile reports per-line blockers without touching the cart.
// A clean pass and a blocked pass are both 200: the body carries the
// verdict, the status is reserved for transport-level failure.
func (h *CheckoutHandler) handleReconcile(w http.ResponseWriter, r *http.Request, start time.Time) {
	avatarID := readAvatarID(r)
	if avatarID == "" {
		writeErr(w, http.StatusBadRequest, "avatarId is required")
		return
	}

	res, err := h.uc.Reconcile(r.Context(), avatarID)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}

	if res.Rejection != nil {
		log.Printf("[storefront_checkout_handler] reconcile rejected reason=%s avatarId=%q elapsed=%s\n", res.Rejection.Reason, avatarID, time.Since(start))
		writeJSON(w, rejectionStatus(res.Rejection), res)
		return
	}

	log.Printf("[storefront_checkout_handler] reconcile ok avatarId=%q failures=%d elapsed=%s\n", avatarID, len(res.Failures), time.Since(start))
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       len(res.Failures) == 0,
		"failures": res.Failures,
	})
}

func (h *CheckoutHandler) handleCommit(w http.ResponseWriter, r *http.Request, start time.Time) {
	avatarID := readAvatarID(r)
	if avatarID == "" {
		writeErr(w, http.StatusBadRequest, "avatarId is required")
		return
	}

	// The token-verified email always wins; the body field only covers
	// unauthenticated local runs. Confirmation mail must not be routable
	// to an arbitrary address by a signed-in shopper.
	email, verified := middleware.CurrentUserEmail(r)

	var req commitReq
	if err := readJSON(r, &req); err == nil && !verified {
		if v := strings.TrimSpace(req.Email); v != "" {
			email = v
		}
	}

	res, err := h.uc.Commit(r.Context(), avatarID, email)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}

	switch {
	case res.Rejection != nil:
		log.Printf("[storefront_checkout_handler] commit rejected reason=%s avatarId=%q elapsed=%s\n", res.Rejection.Reason, avatarID, time.Since(start))
		writeJSON(w, rejectionStatus(res.Rejection), res)

	case len(res.Failures) > 0:
		log.Printf("[storefront_checkout_handler] commit blocked failures=%d avatarId=%q elapsed=%s\n", len(res.Failures), avatarID, time.Since(start))
		writeJSON(w, http.StatusConflict, res)

	default:
		log.Printf("[storefront_checkout_handler] commit ok orderId=%s avatarId=%q elapsed=%s\n", res.Order.ID, avatarID, time.Since(start))
		writeJSON(w, http.StatusCreated, res)
	}
}

func (h *CheckoutHandler) writeUsecaseErr(w http.ResponseWriter, avatarID string, err error) {
	log.Printf("[storefront_checkout_handler] uc error avatarId=%q err=%v\n", avatarID, err)
	switch {
	case errors.Is(err, usecase.ErrCheckoutInvalidArgument):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrCheckoutEmptyCart):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

type commitReq struct {
	Email string `json:"email"`
}
