// internal/domain/cart/reject.go
package cart

import "fmt"

// Reason identifies why a ledger mutation (or the checkout gate) refused
// an operation. Reasons are part of the API contract: handlers map them to
// HTTP statuses and the storefront renders the Message as-is.
type Reason string

const (
	ReasonStoreClosed        Reason = "STORE_CLOSED"
	ReasonOutOfStock         Reason = "OUT_OF_STOCK"
	ReasonInsufficientStock  Reason = "INSUFFICIENT_STOCK"
	ReasonPerLineCapExceeded Reason = "PER_LINE_CAP_EXCEEDED"
	ReasonProductUnavailable Reason = "PRODUCT_UNAVAILABLE"
	ReasonOracleUnavailable  Reason = "ORACLE_UNAVAILABLE"
	ReasonInvalidQuantity    Reason = "INVALID_QUANTITY"
)

// Rejection is a typed refusal returned as a value (nil = accepted).
// It is NOT an infrastructure error: callers branch on it instead of
// unwinding, and every rejection carries a specific human-readable message.
type Rejection struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`

	// Available carries the freshly observed stock for
	// INSUFFICIENT_STOCK so the UI can say "only N available".
	Available int `json:"available,omitempty"`

	// Retryable marks transient refusals (ORACLE_UNAVAILABLE).
	Retryable bool `json:"retryable,omitempty"`
}

func RejectStoreClosed() *Rejection {
	return &Rejection{
		Reason:  ReasonStoreClosed,
		Message: "purchases are temporarily disabled, please check back later",
	}
}

func RejectOutOfStock(name string) *Rejection {
	return &Rejection{
		Reason:  ReasonOutOfStock,
		Message: fmt.Sprintf("%s is out of stock", displayName(name)),
	}
}

func RejectInsufficientStock(name string, available int) *Rejection {
	return &Rejection{
		Reason:    ReasonInsufficientStock,
		Message:   fmt.Sprintf("only %d of %s available", available, displayName(name)),
		Available: available,
	}
}

func RejectPerLineCap(name string) *Rejection {
	return &Rejection{
		Reason:  ReasonPerLineCapExceeded,
		Message: fmt.Sprintf("you can buy at most %d units of %s", MaxPerLine, displayName(name)),
	}
}

func RejectProductUnavailable(name string) *Rejection {
	return &Rejection{
		Reason:  ReasonProductUnavailable,
		Message: fmt.Sprintf("%s is no longer available, please remove it from your cart", displayName(name)),
	}
}

func RejectOracleUnavailable() *Rejection {
	return &Rejection{
		Reason:    ReasonOracleUnavailable,
		Message:   "could not check stock right now, please try again",
		Retryable: true,
	}
}

func RejectInvalidQuantity(n int) *Rejection {
	return &Rejection{
		Reason:  ReasonInvalidQuantity,
		Message: fmt.Sprintf("quantity %d is not valid; remove the item instead", n),
	}
}

func displayName(name string) string {
	if name == "" {
		return "this item"
	}
	return name
}
