package enums

import "fmt"

// CheckoutMode selects when inventory is committed relative to payment
// confirmation.
type CheckoutMode string

const (
	// CheckoutModeVerifyThenPay validates stock at authorization time but
	// defers the inventory debit to the success webhook.
	CheckoutModeVerifyThenPay CheckoutMode = "verify_then_pay"
	// CheckoutModeReserveThenPay holds stock at authorization time and
	// releases it if payment fails or expires.
	CheckoutModeReserveThenPay CheckoutMode = "reserve_then_pay"
)

var validCheckoutModes = []CheckoutMode{
	CheckoutModeVerifyThenPay,
	CheckoutModeReserveThenPay,
}

// IsValid reports whether the value matches the canonical checkout mode enum.
func (m CheckoutMode) IsValid() bool {
	for _, candidate := range validCheckoutModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseCheckoutMode converts the raw string to CheckoutMode.
func ParseCheckoutMode(value string) (CheckoutMode, error) {
	mode := CheckoutMode(value)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid checkout mode %q", value)
	}
	return mode, nil
}
