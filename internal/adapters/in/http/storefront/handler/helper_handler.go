// internal/adapters/in/http/storefront/handler/helper_handler.go
package storefrontHandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"threadline/internal/adapters/in/http/middleware"
	cartdom "threadline/internal/domain/cart"
)

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func readJSON(r *http.Request, dst any) error {
	if dst == nil {
		return errors.New("dst is nil")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)) // 1MB
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// readAvatarID resolves the shopper identity.
// Auth middleware is the normal source; query/header are kept for local
// testing without a token.
func readAvatarID(r *http.Request) string {
	if uid, ok := middleware.CurrentUserUID(r); ok {
		return uid
	}
	if v := strings.TrimSpace(r.URL.Query().Get("avatarId")); v != "" {
		return v
	}
	return strings.TrimSpace(r.Header.Get("X-Avatar-Id"))
}

// rejectionStatus maps a typed refusal to the HTTP status the storefront
// client expects.
func rejectionStatus(rej *cartdom.Rejection) int {
	if rej == nil {
		return http.StatusOK
	}
	switch rej.Reason {
	case cartdom.ReasonInvalidQuantity:
		return http.StatusBadRequest
	case cartdom.ReasonOracleUnavailable:
		return http.StatusServiceUnavailable
	default:
		// STORE_CLOSED / OUT_OF_STOCK / INSUFFICIENT_STOCK /
		// PER_LINE_CAP_EXCEEDED / PRODUCT_UNAVAILABLE
		return http.StatusConflict
	}
}

// ============================================================
// cart view DTO
// ============================================================

type cartItemView struct {
	Identity      string `json:"identity"`
	ProductID     string `json:"productId"`
	VariantKey    string `json:"variantKey,omitempty"`
	ProductName   string `json:"productName"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int    `json:"unitPrice"`
	ObservedStock int    `json:"observedStock"`
	LineTotal     int    `json:"lineTotal"`
}

type cartView struct {
	AvatarID        string         `json:"avatarId"`
	Items           []cartItemView `json:"items"`
	TotalItems      int            `json:"totalItems"`
	Subtotal        int            `json:"subtotal"`
	ShippingCharge  int            `json:"shippingCharge"`
	DiscountCode    string         `json:"discountCode,omitempty"`
	DiscountPercent int            `json:"discountPercent"`
	Total           int            `json:"total"`

	Notice    string             `json:"notice,omitempty"`
	Rejection *cartdom.Rejection `json:"rejection,omitempty"`
}

func buildCartView(avatarID string, l *cartdom.Ledger, rate float64) cartView {
	v := cartView{
		AvatarID: avatarID,
		Items:    []cartItemView{},
	}
	if l == nil {
		return v
	}

	for _, it := range l.Items {
		v.Items = append(v.Items, cartItemView{
			Identity:      it.Identity(),
			ProductID:     it.ProductID,
			VariantKey:    it.VariantKey,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			ObservedStock: it.ObservedStock,
			LineTotal:     it.UnitPrice * it.Quantity,
		})
	}

	v.TotalItems = l.TotalItems()
	v.Subtotal = l.Subtotal()
	v.ShippingCharge = l.ShippingCharge()
	v.DiscountCode = l.DiscountCode
	v.DiscountPercent = int(rate * 100)
	v.Total = l.Total(rate)
	return v
}
