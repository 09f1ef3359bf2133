package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

const eventTypeOrderConfirmed = "order.confirmed"

// OrderConfirmedEvent is the message published after a sale is recorded.
type OrderConfirmedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	CustomerID     string    `json:"customer_id"`
	TotalPaidCents int       `json:"total_paid_cents"`
	Currency       string    `json:"currency"`
	ItemCount      int       `json:"item_count"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// Service publishes customer-facing notifications. Every publish is
// best-effort: a lost notification never fails the operation that
// triggered it.
type Service struct {
	publisher Publisher
	logg      *logger.Logger
}

// NewService builds the notification service. A nil publisher yields a
// service that only logs, which keeps local development decoupled from
// Pub/Sub.
func NewService(publisher Publisher, logg *logger.Logger) *Service {
	return &Service{publisher: publisher, logg: logg}
}

// OrderConfirmed announces a recorded sale.
func (s *Service) OrderConfirmed(ctx context.Context, order *models.Order) {
	if s == nil || order == nil {
		return
	}
	ctx = s.withOrderFields(ctx, order)
	if s.publisher == nil {
		if s.logg != nil {
			s.logg.Info(ctx, "notification publisher not configured, skipping order confirmation")
		}
		return
	}

	event := OrderConfirmedEvent{
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		TotalPaidCents: order.TotalPaidCents,
		Currency:       order.Currency,
		ItemCount:      len(order.Items),
		ConfirmedAt:    order.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "encoding order confirmation", err)
		}
		return
	}

	err = s.publisher.Publish(ctx, data, map[string]string{"event_type": eventTypeOrderConfirmed})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "publishing order confirmation", err)
		}
		return
	}
	if s.logg != nil {
		s.logg.Info(ctx, "order confirmation published")
	}
}

func (s *Service) withOrderFields(ctx context.Context, order *models.Order) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	return s.logg.WithCustomerID(ctx, order.CustomerID)
}
