package controllers

import (
	"net/http"

	"github.com/dmarchetti/orchard-backend/api/middleware"
	"github.com/dmarchetti/orchard-backend/api/responses"
	"github.com/dmarchetti/orchard-backend/api/validators"
	"github.com/dmarchetti/orchard-backend/internal/checkout"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
	"github.com/dmarchetti/orchard-backend/pkg/types"
)

type CheckoutController struct {
	checkout checkout.Service
	logg     *logger.Logger
}

func NewCheckoutController(checkoutSvc checkout.Service, logg *logger.Logger) *CheckoutController {
	return &CheckoutController{checkout: checkoutSvc, logg: logg}
}

type checkoutRequest struct {
	Items    []cartLinePayload `json:"items" validate:"required,min=1,dive"`
	Delivery deliveryPayload   `json:"delivery" validate:"required"`
}

type deliveryPayload struct {
	Recipient  string `json:"recipient" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone"`
}

func (p deliveryPayload) toDeliveryInfo() types.DeliveryInfo {
	return types.DeliveryInfo{
		Recipient:  p.Recipient,
		Line1:      p.Line1,
		Line2:      p.Line2,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Country:    p.Country,
		Phone:      p.Phone,
	}
}

// Begin authorizes payment for the customer's cart and returns the client
// secret used to complete it.
func (c *CheckoutController) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := middleware.CustomerIDFromContext(ctx)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	var req checkoutRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	input := checkout.CheckoutInput{
		Items:    toLineItems(req.Items),
		Delivery: req.Delivery.toDeliveryInfo(),
	}

	result, err := c.checkout.BeginCheckout(ctx, customerID, input)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, result)
}
