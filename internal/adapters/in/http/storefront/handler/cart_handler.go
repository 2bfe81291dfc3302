// internal/adapters/in/http/storefront/handler/cart_handler.go
package storefrontHandler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	usecase "threadline/internal/application/usecase"
	cartdom "threadline/internal/domain/cart"
	"threadline/internal/domain/discount"
)

// CartHandler serves the storefront cart endpoints.
type CartHandler struct {
	uc    *usecase.CartUsecase
	rates discount.RateLookup
}

func NewCartHandler(uc *usecase.CartUsecase, rates discount.RateLookup) http.Handler {
	return &CartHandler{uc: uc, rates: rates}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// ---- request entry log (always) ----
	start := time.Now()
	rawPath := r.URL.Path
	path := strings.TrimRight(rawPath, "/")
	if path == "" {
		path = "/"
	}

	avatarID := readAvatarID(r)

	log.Printf(
		"[storefront_cart_handler] enter method=%s rawPath=%q path=%q query=%q avatarId=%q configured(uc=%t)\n",
		r.Method,
		rawPath,
		path,
		r.URL.RawQuery,
		avatarID,
		h.uc != nil,
	)

	if h.uc == nil {
		log.Printf("[storefront_cart_handler] exit status=500 reason=cart handler uc is nil elapsed=%s\n", time.Since(start))
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	isGET := r.Method == http.MethodGet
	isDEL := r.Method == http.MethodDelete
	isPOST := r.Method == http.MethodPost
	isPUT := r.Method == http.MethodPut

	switch {
	case isGET && strings.HasSuffix(path, "/cart"):
		h.handleGet(w, r, start)
		return

	case isDEL && strings.HasSuffix(path, "/cart"):
		h.handleClear(w, r, start)
		return

	case isPOST && strings.HasSuffix(path, "/cart/items"):
		h.handleAddItem(w, r, start)
		return

	case isPUT && strings.HasSuffix(path, "/cart/items"):
		h.handleSetQuantity(w, r, start)
		return

	case isDEL && strings.HasSuffix(path, "/cart/items"):
		h.handleRemoveItem(w, r, start)
		return

	case isPOST && strings.HasSuffix(path, "/cart/discount"):
		h.handleApplyDiscount(w, r, start)
		return

	case isDEL && strings.HasSuffix(path, "/cart/discount"):
		h.handleRemoveDiscount(w, r, start)
		return
	}

	log.Printf("[storefront_cart_handler] exit status=404 reason=not found method=%s path=%q elapsed=%s\n", r.Method, path, time.Since(start))
	writeErr(w, http.StatusNotFound, "not found")
}

// -------------------------
// handlers
// -------------------------

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request, start time.Time) {
	avatarID := readAvatarID(r)
	if avatarID == "" {
		writeErr(w, http.StatusBadRequest, "avatarId is required")
		return
	}

	l, err := h.uc.Get(r.Context(), avatarID)
	if err != nil {
		if errors.Is(err, usecase.ErrCartNotFound) {
			// empty cart (stable UX)
			log.Printf("[storefront_cart_handler] GET return empty-cart status=200 avatarId=%q elapsed=%s\n", avatarID, time.Since(start))
			writeJSON(w, http.StatusOK, buildCartView(avatarID, nil, 0))
			return
		}
		h.writeUsecaseErr(w, avatarID, err)
		return
	}

	log.Printf("[storefront_cart_handler] GET ok status=200 avatarId=%q items=%d elapsed=%s\n", avatarID, len(l.Items), time.Since(start))
	writeJSON(w, http.StatusOK, buildCartView(avatarID, l, h.rateFor(r.Context(), l)))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request, start time.Time) {
	var req cartItemReq
	if err := readJSON(r, &req); err != nil {
		log.Printf("[storefront_cart_handler] POST add-item exit status=400 reason=invalid json err=%v\n", err)
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	avatarID := readAvatarID(r)
	productID := strings.TrimSpace(req.ProductID)
	variantKey := strings.TrimSpace(req.VariantKey)

	log.Printf("[storefront_cart_handler] POST add-item request avatarId=%q productId=%q variantKey=%q\n", avatarID, productID, variantKey)

	if avatarID == "" || productID == "" {
		writeErr(w, http.StatusBadRequest, "avatarId and productId are required")
		return
	}

	res, err := h.uc.AddItem(r.Context(), avatarID, productID, variantKey)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}
	h.respondMutation(w, r, avatarID, res, start)
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request, start time.Time) {
	var req cartItemReq
	if err := readJSON(r, &req); err != nil {
		log.Printf("[storefront_cart_handler] PUT set-qty exit status=400 reason=invalid json err=%v\n", err)
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	avatarID := readAvatarID(r)
	identity := req.identity()

	log.Printf("[storefront_cart_handler] PUT set-qty request avatarId=%q identity=%q qty=%d\n", avatarID, identity, req.Quantity)

	if avatarID == "" || identity == "" {
		writeErr(w, http.StatusBadRequest, "avatarId and productId (or identity) are required")
		return
	}

	res, err := h.uc.SetQuantity(r.Context(), avatarID, identity, req.Quantity)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}
	h.respondMutation(w, r, avatarID, res, start)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request, start time.Time) {
	var req cartItemReq
	if err := readJSON(r, &req); err != nil {
		log.Printf("[storefront_cart_handler] DELETE remove-item exit status=400 reason=invalid json err=%v\n", err)
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	avatarID := readAvatarID(r)
	identity := req.identity()

	log.Printf("[storefront_cart_handler] DELETE remove-item request avatarId=%q identity=%q\n", avatarID, identity)

	if avatarID == "" || identity == "" {
		writeErr(w, http.StatusBadRequest, "avatarId and productId (or identity) are required")
		return
	}

	res, err := h.uc.RemoveItem(r.Context(), avatarID, identity)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}
	h.respondMutation(w, r, avatarID, res, start)
}

func (h *CartHandler) handleApplyDiscount(w http.ResponseWriter, r *http.Request, start time.Time) {
	var req discountReq
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	avatarID := readAvatarID(r)
	code := strings.TrimSpace(req.Code)

	log.Printf("[storefront_cart_handler] POST discount request avatarId=%q code=%q\n", avatarID, code)

	if avatarID == "" || code == "" {
		writeErr(w, http.StatusBadRequest, "avatarId and code are required")
		return
	}

	res, err := h.uc.ApplyDiscount(r.Context(), avatarID, code)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}
	h.respondMutation(w, r, avatarID, res, start)
}

func (h *CartHandler) handleRemoveDiscount(w http.ResponseWriter, r *http.Request, start time.Time) {
	avatarID := readAvatarID(r)
	if avatarID == "" {
		writeErr(w, http.StatusBadRequest, "avatarId is required")
		return
	}

	log.Printf("[storefront_cart_handler] DELETE discount request avatarId=%q\n", avatarID)

	res, err := h.uc.RemoveDiscount(r.Context(), avatarID)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}
	h.respondMutation(w, r, avatarID, res, start)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request, start time.Time) {
	avatarID := readAvatarID(r)
	if avatarID == "" {
		writeErr(w, http.StatusBadRequest, "avatarId is required")
		return
	}

	log.Printf("[storefront_cart_handler] DELETE clear request avatarId=%q\n", avatarID)

	res, err := h.uc.Clear(r.Context(), avatarID)
	if err != nil {
		h.writeUsecaseErr(w, avatarID, err)
		return
	}
	h.respondMutation(w, r, avatarID, res, start)
}

// -------------------------
// responses
// -------------------------

func (h *CartHandler) respondMutation(w http.ResponseWriter, r *http.Request, avatarID string, res usecase.MutationResult, start time.Time) {
	view := buildCartView(avatarID, res.Ledger, h.rateFor(r.Context(), res.Ledger))
	view.Notice = res.Notice
	view.Rejection = res.Rejection

	status := rejectionStatus(res.Rejection)
	if res.Rejection != nil {
		log.Printf("[storefront_cart_handler] rejected status=%d reason=%s avatarId=%q elapsed=%s\n", status, res.Rejection.Reason, avatarID, time.Since(start))
	} else {
		log.Printf("[storefront_cart_handler] ok status=200 avatarId=%q elapsed=%s\n", avatarID, time.Since(start))
	}
	writeJSON(w, status, view)
}

func (h *CartHandler) writeUsecaseErr(w http.ResponseWriter, avatarID string, err error) {
	log.Printf("[storefront_cart_handler] uc error avatarId=%q err=%v\n", avatarID, err)
	switch {
	case errors.Is(err, usecase.ErrCartInvalidArgument), errors.Is(err, cartdom.ErrInvalidLedger):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrCartNotFound), errors.Is(err, usecase.ErrCartItemNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *CartHandler) rateFor(ctx context.Context, l *cartdom.Ledger) float64 {
	if h.rates == nil || l == nil || strings.TrimSpace(l.DiscountCode) == "" {
		return 0
	}
	return h.rates.Rate(ctx, l.DiscountCode)
}

// -------------------------
// request DTOs
// -------------------------

type cartItemReq struct {
	ProductID  string `json:"productId"`
	VariantKey string `json:"variantKey"`
	Identity   string `json:"identity"`
	Quantity   int    `json:"quantity"`
}

// identity prefers the explicit field, falling back to productId/variantKey.
func (r cartItemReq) identity() string {
	if v := strings.TrimSpace(r.Identity); v != "" {
		return v
	}
	pid := strings.TrimSpace(r.ProductID)
	if pid == "" {
		return ""
	}
	return cartdom.Identity(pid, r.VariantKey)
}

type discountReq struct {
	Code string `json:"code"`
}
