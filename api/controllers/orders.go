package controllers

import (
	"net/http"

	"github.com/dmarchetti/orchard-backend/api/middleware"
	"github.com/dmarchetti/orchard-backend/api/responses"
	"github.com/dmarchetti/orchard-backend/internal/orders"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

type OrdersController struct {
	orders orders.Service
	logg   *logger.Logger
}

func NewOrdersController(ordersSvc orders.Service, logg *logger.Logger) *OrdersController {
	return &OrdersController{orders: ordersSvc, logg: logg}
}

// List returns the authenticated customer's orders, newest first.
func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := middleware.CustomerIDFromContext(ctx)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	summaries, err := c.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, map[string]any{"orders": summaries})
}
