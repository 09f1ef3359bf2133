package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/dmarchetti/orchard-backend/api/responses"
	stripewebhooks "github.com/dmarchetti/orchard-backend/internal/webhooks/stripe"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

// Stripe caps webhook payloads well below this; anything larger is junk.
const maxWebhookBodyBytes = 1 << 16

// EventHandler processes a verified Stripe event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type StripeController struct {
	handler       EventHandler
	guard         *stripewebhooks.IdempotencyGuard
	signingSecret string
	logg          *logger.Logger
}

func NewStripeController(handler EventHandler, guard *stripewebhooks.IdempotencyGuard, signingSecret string, logg *logger.Logger) *StripeController {
	return &StripeController{
		handler:       handler,
		guard:         guard,
		signingSecret: signingSecret,
		logg:          logg,
	}
}

// Handle verifies the event signature, filters replays, and hands the
// event to the reconciliation service. Processing errors return a 5xx so
// Stripe retries the delivery.
func (c *StripeController) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), c.signingSecret)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeWebhookAuth, err, "webhook signature verification failed"))
		return
	}

	if c.logg != nil {
		ctx = c.logg.WithFields(ctx, map[string]any{
			"stripe_event_id":   event.ID,
			"stripe_event_type": string(event.Type),
		})
	}

	if c.guard != nil {
		seen, err := c.guard.CheckAndMark(ctx, event.ID)
		if err != nil && c.logg != nil {
			// The database barrier still holds, so process anyway.
			c.logg.Warn(ctx, "webhook idempotency check failed, continuing")
		}
		if err == nil && seen {
			if c.logg != nil {
				c.logg.Info(ctx, "webhook replay filtered")
			}
			responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
			return
		}
	}

	if err := c.handler.HandleEvent(ctx, &event); err != nil {
		if c.guard != nil {
			// Unmark so the retry is not filtered as a replay.
			if delErr := c.guard.Delete(ctx, event.ID); delErr != nil && c.logg != nil {
				c.logg.Warn(ctx, "failed to unmark webhook event")
			}
		}
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, map[string]string{"status": "processed"})
}
