package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/pkg/db/models"
)

func TestServiceListByCustomer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	productID := uuid.New()
	if _, err := repo.Create(ctx, &models.Order{
		CustomerID:      "cus_2001",
		AuthorizationID: "pi_svc",
		TotalPaidCents:  1800,
		Currency:        "usd",
		Status:          "completed",
		Items: []models.OrderLineItem{
			{ProductID: &productID, Title: "Jonagold Crate", UnitPriceCents: 900, Qty: 2, TotalCents: 1800},
		},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	summaries, err := svc.ListByCustomer(ctx, "cus_2001")
	if err != nil {
		t.Fatalf("list by customer: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 order, got %d", len(summaries))
	}
	summary := summaries[0]
	if summary.TotalPaidCents != 1800 || len(summary.Items) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Items[0].Title != "Jonagold Crate" || summary.Items[0].Qty != 2 {
		t.Fatalf("unexpected line item: %+v", summary.Items[0])
	}
}
