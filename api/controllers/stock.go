package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/api/responses"
	"github.com/dmarchetti/orchard-backend/api/validators"
	"github.com/dmarchetti/orchard-backend/internal/checkout"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

type StockController struct {
	checkout checkout.Service
	logg     *logger.Logger
}

func NewStockController(checkoutSvc checkout.Service, logg *logger.Logger) *StockController {
	return &StockController{checkout: checkoutSvc, logg: logg}
}

type stockVerifyRequest struct {
	Items []cartLinePayload `json:"items" validate:"required,min=1,dive"`
}

type cartLinePayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Title     string `json:"title"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

func toLineItems(payload []cartLinePayload) []checkout.LineItem {
	items := make([]checkout.LineItem, len(payload))
	for i, line := range payload {
		id, _ := uuid.Parse(line.ProductID)
		items[i] = checkout.LineItem{ProductID: id, Title: line.Title, Qty: line.Qty}
	}
	return items
}

// Verify reports availability for a cart without placing any hold.
func (c *StockController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req stockVerifyRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	result, err := c.checkout.VerifyStock(ctx, toLineItems(req.Items))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, result)
}
