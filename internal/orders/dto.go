package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	"github.com/dmarchetti/orchard-backend/pkg/enums"
	"github.com/dmarchetti/orchard-backend/pkg/types"
)

// OrderSummary is the API shape of one confirmed order.
type OrderSummary struct {
	ID             uuid.UUID          `json:"id"`
	TotalPaidCents int                `json:"total_paid_cents"`
	Currency       string             `json:"currency"`
	Status         enums.OrderStatus  `json:"status"`
	Delivery       types.DeliveryInfo `json:"delivery"`
	CreatedAt      time.Time          `json:"created_at"`
	Items          []LineItemSummary  `json:"items"`
}

// LineItemSummary is the priced snapshot of one line as sold.
type LineItemSummary struct {
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Title          string     `json:"title"`
	UnitPriceCents int        `json:"unit_price_cents"`
	Qty            int        `json:"qty"`
	TotalCents     int        `json:"total_cents"`
	Notes          *string    `json:"notes,omitempty"`
}

func toOrderSummary(order models.Order) OrderSummary {
	items := make([]LineItemSummary, len(order.Items))
	for i, item := range order.Items {
		items[i] = LineItemSummary{
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
			Notes:          item.Notes,
		}
	}
	return OrderSummary{
		ID:             order.ID,
		TotalPaidCents: order.TotalPaidCents,
		Currency:       order.Currency,
		Status:         order.Status,
		Delivery:       order.Delivery,
		CreatedAt:      order.CreatedAt,
		Items:          items,
	}
}
