package checkout

import (
	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/pkg/types"
)

// LineItem is one cart line as submitted by the client. Title is display
// data only; price and availability are always resolved server-side. Any
// per-line expiry a client attaches to its cart is enforced client-side
// and never transmitted; the server re-validates every line at checkout
// regardless of cart age.
type LineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Qty       int       `json:"qty"`
}

// CheckoutInput carries everything needed to authorize a payment.
type CheckoutInput struct {
	Items    []LineItem
	Delivery types.DeliveryInfo
}

// CheckoutResult is returned once the payment is authorized. The client
// completes the payment with ClientSecret; AuthorizationID ties the later
// payment outcome back to this checkout.
type CheckoutResult struct {
	AuthorizationID string `json:"authorization_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int    `json:"amount_cents"`
	Currency        string `json:"currency"`
	StockReserved   bool   `json:"stock_reserved"`
}

// InsufficientLine reports a line whose requested quantity exceeds what is
// sellable right now.
type InsufficientLine struct {
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// VerificationResult is the outcome of a stock check. It is a report, not
// an error: callers decide whether a failed check aborts anything.
type VerificationResult struct {
	OK           bool               `json:"ok"`
	Unavailable  []string           `json:"unavailable,omitempty"`
	Insufficient []InsufficientLine `json:"insufficient,omitempty"`
}
