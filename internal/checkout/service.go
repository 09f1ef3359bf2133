package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/dmarchetti/orchard-backend/internal/checkout/reservation"
	"github.com/dmarchetti/orchard-backend/pkg/config"
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

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) ([]reservation.Result, error)
	Release(ctx context.Context, db *gorm.DB, requests []reservation.Request) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) ([]reservation.Result, error) {
	return reservation.Reserve(ctx, tx, requests)
}

func (reservationEngine) Release(ctx context.Context, db *gorm.DB, requests []reservation.Request) error {
	return reservation.Release(ctx, db, requests)
}

// Service verifies stock and authorizes payments.
type Service interface {
	VerifyStock(ctx context.Context, items []LineItem) (*VerificationResult, error)
	BeginCheckout(ctx context.Context, customerID string, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	tx          txRunner
	products    productLoader
	reservation reservationRunner
	payments    PaymentAuthorizer
	cfg         config.CheckoutConfig
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	products productLoader,
	reservationRun reservationRunner,
	payments PaymentAuthorizer,
	cfg config.CheckoutConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment authorizer required")
	}
	if reservationRun == nil {
		reservationRun = reservationEngine{}
	}
	return &service{
		tx:          tx,
		products:    products,
		reservation: reservationRun,
		payments:    payments,
		cfg:         cfg,
		metrics:     checkoutMetrics,
		logg:        logg,
	}, nil
}

// VerifyStock checks the cart against current availability without holding
// anything. Lines for the same product compete for one shared balance so
// the report matches what a reservation would decide.
func (s *service) VerifyStock(ctx context.Context, items []LineItem) (*VerificationResult, error) {
	if err := validateLineItems(items); err != nil {
		return nil, err
	}
	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	return buildVerification(items, products), nil
}

func (s *service) BeginCheckout(ctx context.Context, customerID string, input CheckoutInput) (*CheckoutResult, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if err := validateLineItems(input.Items); err != nil {
		return nil, err
	}
	if err := input.Delivery.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery info")
	}

	products, err := s.loadProducts(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	lines := make([]pricedLine, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, pricedLine{
			item:           item,
			title:          product.Title,
			unitPriceCents: product.EffectivePriceCents(),
		})
	}

	totalCents := computeTotalCents(lines)
	if len(lines) == len(input.Items) && totalCents < s.cfg.MinimumPayableCents {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimum, "order total below payable minimum").
			WithDetails(map[string]int{
				"total_cents":   totalCents,
				"minimum_cents": s.cfg.MinimumPayableCents,
			})
	}

	verification := buildVerification(input.Items, products)
	if !verification.OK {
		return nil, stockError(verification)
	}

	reserved := enums.CheckoutMode(s.cfg.Mode) == enums.CheckoutModeReserveThenPay
	requests := reservationRequests(input.Items, products)
	if reserved {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			results, rerr := s.reservation.Reserve(ctx, tx, requests)
			if rerr != nil {
				return rerr
			}
			if !reservation.AllReserved(results) {
				return stockError(verificationFromReservation(results))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	snapshot := Snapshot{
		CustomerID:    customerID,
		StockReserved: reserved,
		Delivery:      input.Delivery,
		Items:         snapshotItems(lines),
	}
	metadata, err := EncodeSnapshot(snapshot)
	if err != nil {
		if reserved {
			s.releaseHold(ctx, requests)
		}
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(totalCents)),
		Currency: stripe.String(s.cfg.Currency),
	}
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	intent, err := s.payments.CreateIntent(ctx, params)
	if err != nil {
		if reserved {
			s.releaseHold(ctx, requests)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "payment authorization failed")
	}

	s.metrics.IncAuthorization(s.cfg.Mode)
	if s.logg != nil {
		s.logg.Info(s.logg.WithAuthorizationID(ctx, intent.ID), "checkout authorized")
	}

	return &CheckoutResult{
		AuthorizationID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     totalCents,
		Currency:        s.cfg.Currency,
		StockReserved:   reserved,
	}, nil
}

// releaseHold compensates a reservation whose payment never got
// authorized. Failures are logged; the release is floored and idempotent
// so the expiry webhook can safely repeat it.
func (s *service) releaseHold(ctx context.Context, requests []reservation.Request) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.reservation.Release(ctx, tx, requests)
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "releasing reservation after failed authorization", err)
	}
}

func (s *service) loadProducts(ctx context.Context, items []LineItem) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return s.products.FindByIDs(ctx, ids)
}

func buildVerification(items []LineItem, products map[uuid.UUID]models.Product) *VerificationResult {
	remaining := make(map[uuid.UUID]int, len(products))
	for id, product := range products {
		remaining[id] = product.AvailableStock()
	}

	result := &VerificationResult{OK: true}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			result.OK = false
			result.Unavailable = append(result.Unavailable, item.Title)
			continue
		}
		title := product.Title
		if title == "" {
			title = item.Title
		}
		if remaining[item.ProductID] < item.Qty {
			result.OK = false
			result.Insufficient = append(result.Insufficient, InsufficientLine{
				Title:     title,
				Requested: item.Qty,
				Available: remaining[item.ProductID],
			})
			continue
		}
		remaining[item.ProductID] -= item.Qty
	}
	return result
}

func verificationFromReservation(results []reservation.Result) *VerificationResult {
	verification := &VerificationResult{OK: true}
	for _, res := range results {
		switch {
		case res.Reserved:
		case res.Reason == reservation.ReasonUnavailable:
			verification.OK = false
			verification.Unavailable = append(verification.Unavailable, res.Title)
		default:
			verification.OK = false
			verification.Insufficient = append(verification.Insufficient, InsufficientLine{
				Title:     res.Title,
				Requested: res.Qty,
				Available: res.Available,
			})
		}
	}
	return verification
}

func stockError(verification *VerificationResult) error {
	if len(verification.Unavailable) > 0 {
		return pkgerrors.New(pkgerrors.CodeStockUnavailable, "one or more items are no longer available").
			WithDetails(verification)
	}
	return pkgerrors.New(pkgerrors.CodeStockInsufficient, "insufficient stock for one or more items").
		WithDetails(verification)
}

func reservationRequests(items []LineItem, products map[uuid.UUID]models.Product) []reservation.Request {
	requests := make([]reservation.Request, len(items))
	for i, item := range items {
		title := item.Title
		if product, ok := products[item.ProductID]; ok && product.Title != "" {
			title = product.Title
		}
		requests[i] = reservation.Request{ProductID: item.ProductID, Title: title, Qty: item.Qty}
	}
	return requests
}

func snapshotItems(lines []pricedLine) []SnapshotItem {
	items := make([]SnapshotItem, len(lines))
	for i, line := range lines {
		items[i] = SnapshotItem{
			ProductID:      line.item.ProductID,
			Title:          line.title,
			UnitPriceCents: line.unitPriceCents,
			Qty:            line.item.Qty,
		}
	}
	return items
}
