package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dmarchetti/orchard-backend/api/middleware"
	"github.com/dmarchetti/orchard-backend/internal/checkout"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

type stubCheckoutService struct {
	verifyResult *checkout.VerificationResult
	beginResult  *checkout.CheckoutResult
	beginErr     error
	lastCustomer string
	lastInput    checkout.CheckoutInput
}

func (s *stubCheckoutService) VerifyStock(ctx context.Context, items []checkout.LineItem) (*checkout.VerificationResult, error) {
	if s.verifyResult != nil {
		return s.verifyResult, nil
	}
	return &checkout.VerificationResult{OK: true}, nil
}

func (s *stubCheckoutService) BeginCheckout(ctx context.Context, customerID string, input checkout.CheckoutInput) (*checkout.CheckoutResult, error) {
	s.lastCustomer = customerID
	s.lastInput = input
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.beginResult, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func checkoutBody(productID uuid.UUID) string {
	return `{
		"items": [{"product_id": "` + productID.String() + `", "title": "Honeycrisp Crate", "qty": 2}],
		"delivery": {
			"recipient": "Dana Smith",
			"line1": "1 Orchard Ln",
			"city": "Yakima",
			"state": "WA",
			"postal_code": "98901",
			"country": "US"
		}
	}`
}

func TestBeginCheckoutRequiresCustomer(t *testing.T) {
	controller := NewCheckoutController(&stubCheckoutService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(uuid.New())))
	rec := httptest.NewRecorder()
	controller.Begin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without customer context, got %d", rec.Code)
	}
}

func TestBeginCheckoutRejectsBadBody(t *testing.T) {
	controller := NewCheckoutController(&stubCheckoutService{}, testLogger())

	body := `{"items": [{"product_id": "not-a-uuid", "qty": 0}], "delivery": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), "cus_2001"))
	rec := httptest.NewRecorder()
	controller.Begin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid body, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestBeginCheckoutSuccess(t *testing.T) {
	stub := &stubCheckoutService{
		beginResult: &checkout.CheckoutResult{
			AuthorizationID: "pi_123",
			ClientSecret:    "pi_123_secret",
			AmountCents:     2500,
			Currency:        "usd",
		},
	}
	controller := NewCheckoutController(stub, testLogger())

	productID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(productID)))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), "cus_2001"))
	rec := httptest.NewRecorder()
	controller.Begin(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if stub.lastCustomer != "cus_2001" {
		t.Fatalf("unexpected customer id: %s", stub.lastCustomer)
	}
	if len(stub.lastInput.Items) != 1 || stub.lastInput.Items[0].ProductID != productID || stub.lastInput.Items[0].Qty != 2 {
		t.Fatalf("unexpected input items: %+v", stub.lastInput.Items)
	}
	if stub.lastInput.Delivery.City != "Yakima" {
		t.Fatalf("unexpected delivery: %+v", stub.lastInput.Delivery)
	}

	var envelope struct {
		Data checkout.CheckoutResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ClientSecret != "pi_123_secret" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestBeginCheckoutMapsStockConflict(t *testing.T) {
	stub := &stubCheckoutService{
		beginErr: pkgerrors.New(pkgerrors.CodeStockInsufficient, "one or more products have insufficient stock").
			WithDetails(&checkout.VerificationResult{
				Insufficient: []checkout.InsufficientLine{{Title: "Honeycrisp Crate", Requested: 5, Available: 2}},
			}),
	}
	controller := NewCheckoutController(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(uuid.New())))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), "cus_2001"))
	rec := httptest.NewRecorder()
	controller.Begin(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Honeycrisp Crate") {
		t.Fatalf("expected insufficiency details in body: %s", rec.Body.String())
	}
}

func TestVerifyStock(t *testing.T) {
	stub := &stubCheckoutService{
		verifyResult: &checkout.VerificationResult{
			OK:          false,
			Unavailable: []string{"Gala Crate"},
		},
	}
	controller := NewStockController(stub, testLogger())

	body := `{"items": [{"product_id": "` + uuid.NewString() + `", "qty": 1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	controller.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data checkout.VerificationResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OK || len(envelope.Data.Unavailable) != 1 {
		t.Fatalf("unexpected verification: %+v", envelope.Data)
	}
}
