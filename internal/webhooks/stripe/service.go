package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dmarchetti/orchard-backend/internal/checkout"
	"github.com/dmarchetti/orchard-backend/internal/inventory"
	"github.com/dmarchetti/orchard-backend/internal/orders"
	"github.com/dmarchetti/orchard-backend/pkg/db/models"
	"github.com/dmarchetti/orchard-backend/pkg/enums"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
	"github.com/dmarchetti/orchard-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type orderNotifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

// ServiceParams collects the reconciler's dependencies.
type ServiceParams struct {
	TransactionRunner txRunner
	OrdersRepo        orders.Repository
	InventoryRepo     inventory.Repository
	ProductLoader     productLoader
	Notifier          orderNotifier
	Metrics           *metrics.CheckoutMetrics
	Logger            *logger.Logger

	// DebitRetryBudget bounds how many times a conflicting stock commit
	// is retried before the event is handed back to Stripe for redelivery.
	DebitRetryBudget int
}

// Service turns payment outcome events into orders and inventory moves.
// The DB unique index on authorization id is the idempotency barrier:
// a replayed success event finds the existing order and stops.
type Service struct {
	tx          txRunner
	orders      orders.Repository
	inventory   inventory.Repository
	products    productLoader
	notifier    orderNotifier
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	retryBudget int
}

// NewService builds the payment reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.InventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.ProductLoader == nil {
		return nil, fmt.Errorf("product loader required")
	}
	retryBudget := params.DebitRetryBudget
	if retryBudget < 1 {
		retryBudget = 1
	}
	return &Service{
		tx:          params.TransactionRunner,
		orders:      params.OrdersRepo,
		inventory:   params.InventoryRepo,
		products:    params.ProductLoader,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		logg:        params.Logger,
		retryBudget: retryBudget,
	}, nil
}

// HandleEvent reconciles one payment outcome. Unknown event types are
// acknowledged without action so the processor stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	outcome, ok := outcomeForEvent(event.Type)
	if !ok {
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	snapshot, err := checkout.DecodeSnapshot(intent.Metadata)
	if err != nil {
		return err
	}

	ctx = s.withEventFields(ctx, intent.ID, snapshot.CustomerID)

	start := time.Now()
	switch outcome {
	case enums.PaymentOutcomeSucceeded:
		err = s.recordSaleWithRetry(ctx, &intent, snapshot)
	default:
		err = s.releaseHold(ctx, snapshot)
	}
	s.observe(outcome, start, err)
	return err
}

// recordSaleWithRetry reruns a conflicting sale up to the retry budget.
// A conflicting rerun re-reads by authorization id first, so a concurrent
// winner turns the retry into a no-op.
func (s *Service) recordSaleWithRetry(ctx context.Context, intent *stripe.PaymentIntent, snapshot checkout.Snapshot) error {
	var err error
	for attempt := 1; attempt <= s.retryBudget; attempt++ {
		err = s.recordSale(ctx, intent, snapshot)
		typed := pkgerrors.As(err)
		if typed == nil {
			return err
		}
		if typed.Code() != pkgerrors.CodeWriteConflict && typed.Code() != pkgerrors.CodeConflict {
			return err
		}
		if s.logg != nil && attempt < s.retryBudget {
			s.logg.Warn(ctx, "stock commit conflicted, retrying")
		}
	}
	return err
}

// recordSale creates the order and commits the stock movement in one
// transaction. In reserve mode the units were committed at authorization
// time, so only the verify mode path debits here.
func (s *Service) recordSale(ctx context.Context, intent *stripe.PaymentIntent, snapshot checkout.Snapshot) error {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		inventoryRepo := s.inventory.WithTx(tx)

		existing, err := ordersRepo.FindByAuthorizationID(ctx, intent.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if s.logg != nil {
				s.logg.Info(ctx, "payment outcome already reconciled")
			}
			return nil
		}

		items, err := s.buildLineItems(ctx, snapshot)
		if err != nil {
			return err
		}

		oversold := false
		var debitErrs error
		if !snapshot.StockReserved {
			for i := range items {
				if items[i].ProductID == nil {
					continue
				}
				outcome, derr := inventoryRepo.Debit(ctx, *items[i].ProductID, items[i].Qty)
				if derr != nil {
					debitErrs = multierr.Append(debitErrs, derr)
					continue
				}
				switch outcome {
				case inventory.DeltaClamped:
					oversold = true
					s.metrics.IncOversell()
					if s.logg != nil {
						s.logg.Error(ctx, fmt.Sprintf("oversold %q, paid quantity exceeded stock", items[i].Title), nil)
					}
				case inventory.DeltaNotFound:
					items[i].ProductID = nil
					items[i].Notes = stringPtr("product removed from catalog before fulfillment")
					if s.logg != nil {
						s.logg.Warn(ctx, fmt.Sprintf("product for %q deleted before fulfillment", items[i].Title))
					}
				}
			}
		}
		if debitErrs != nil {
			return pkgerrors.Wrap(pkgerrors.CodeWriteConflict, debitErrs, "committing stock for paid order")
		}

		currency := string(intent.Currency)
		if currency == "" {
			currency = "usd"
		}
		order := &models.Order{
			CustomerID:      snapshot.CustomerID,
			AuthorizationID: intent.ID,
			TotalPaidCents:  snapshot.TotalCents(),
			Currency:        currency,
			Status:          enums.OrderStatusCompleted,
			Delivery:        snapshot.Delivery,
			Oversold:        oversold,
			Items:           items,
		}
		created, err = ordersRepo.Create(ctx, order)
		return err
	})
	if err != nil {
		return err
	}

	if created != nil && s.notifier != nil {
		s.notifier.OrderConfirmed(ctx, created)
	}
	return nil
}

// releaseHold returns reserved units after a failed or expired payment.
// Without a reservation there is nothing to undo.
func (s *Service) releaseHold(ctx context.Context, snapshot checkout.Snapshot) error {
	if !snapshot.StockReserved {
		if s.logg != nil {
			s.logg.Info(ctx, "payment did not complete, no stock was held")
		}
		return nil
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		inventoryRepo := s.inventory.WithTx(tx)
		for _, item := range snapshot.Items {
			if err := inventoryRepo.Release(ctx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}
		if s.logg != nil {
			s.logg.Info(ctx, "released held stock after failed payment")
		}
		return nil
	})
}

// buildLineItems freezes the snapshot into order lines, refreshing titles
// from the live catalog where the products still exist. Snapshot prices
// are authoritative; the catalog may have changed since authorization.
func (s *Service) buildLineItems(ctx context.Context, snapshot checkout.Snapshot) ([]models.OrderLineItem, error) {
	ids := make([]uuid.UUID, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderLineItem, len(snapshot.Items))
	for i, item := range snapshot.Items {
		productID := item.ProductID
		title := item.Title
		if product, ok := products[item.ProductID]; ok && product.Title != "" {
			title = product.Title
		}
		items[i] = models.OrderLineItem{
			ProductID:      &productID,
			Title:          title,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.UnitPriceCents * item.Qty,
		}
	}
	return items, nil
}

func (s *Service) observe(outcome enums.PaymentOutcome, start time.Time, err error) {
	result := "processed"
	if err != nil {
		result = "error"
	}
	s.metrics.IncWebhookEvent(string(outcome), result)
	s.metrics.ObserveWebhookDuration(string(outcome), time.Since(start))
}

func (s *Service) withEventFields(ctx context.Context, authorizationID, customerID string) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithAuthorizationID(ctx, authorizationID)
	return s.logg.WithCustomerID(ctx, customerID)
}

func outcomeForEvent(eventType stripe.EventType) (enums.PaymentOutcome, bool) {
	switch eventType {
	case stripe.EventTypePaymentIntentSucceeded:
		return enums.PaymentOutcomeSucceeded, true
	case stripe.EventTypePaymentIntentPaymentFailed:
		return enums.PaymentOutcomeFailed, true
	case stripe.EventTypePaymentIntentCanceled:
		return enums.PaymentOutcomeExpired, true
	default:
		return "", false
	}
}

func stringPtr(s string) *string {
	return &s
}
