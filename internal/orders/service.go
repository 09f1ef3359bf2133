package orders

import (
	"context"
	"fmt"
)

// Service exposes order reads for the customer-facing API.
type Service interface {
	ListByCustomer(ctx context.Context, customerID string) ([]OrderSummary, error)
}

type service struct {
	repo Repository
}

// NewService builds the orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID string) ([]OrderSummary, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	summaries := make([]OrderSummary, len(rows))
	for i, row := range rows {
		summaries[i] = toOrderSummary(row)
	}
	return summaries, nil
}
