package checkout

import (
	"github.com/google/uuid"

	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
)

// validateLineItems rejects carts that cannot be priced: no lines, a line
// without a product reference, or a non-positive quantity.
func validateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item missing product id")
		}
		if item.Qty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be at least 1")
		}
	}
	return nil
}
