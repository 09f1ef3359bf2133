package middleware

import (
	"context"

	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
)

type contextKey string

const (
	ctxCustomerID contextKey = "customer_id"
	ctxEmail      contextKey = "customer_email"
)

// WithCustomerID seeds the context with the authenticated customer's id.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// CustomerIDFromContext returns the authenticated customer's id.
func CustomerIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(ctxCustomerID).(string)
	if !ok || id == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing")
	}
	return id, nil
}
