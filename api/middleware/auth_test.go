package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/dmarchetti/orchard-backend/pkg/auth"
	"github.com/dmarchetti/orchard-backend/pkg/config"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "orchard-test", ExpirationMinutes: 60}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	var gotCustomerID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := CustomerIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("customer id from context: %v", err)
		}
		gotCustomerID = id
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(cfg, logg)(next)

	t.Run("valid token", func(t *testing.T) {
		token, err := pkgauth.MintCustomerToken(cfg, time.Now(), pkgauth.CustomerTokenPayload{CustomerID: "cus_3001", Email: "dana@example.com"})
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if gotCustomerID != "cus_3001" {
			t.Fatalf("unexpected customer id: %s", gotCustomerID)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := pkgauth.MintCustomerToken(cfg, time.Now().Add(-2*time.Hour), pkgauth.CustomerTokenPayload{CustomerID: "cus_3001"})
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for expired token, got %d", rec.Code)
		}
	})
}
