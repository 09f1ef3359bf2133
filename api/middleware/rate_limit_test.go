package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmarchetti/orchard-backend/pkg/config"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

type memoryWindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *memoryWindowStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func TestCheckoutRateLimit(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	newRequest := func(remoteAddr string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.RemoteAddr = remoteAddr
		return req
	}

	t.Run("blocks ip past the limit", func(t *testing.T) {
		cfg := config.CheckoutConfig{RateLimitWindow: time.Minute, RateLimitPerIP: 2}
		handler := CheckoutRateLimit(cfg, &memoryWindowStore{}, logg)(okHandler)

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest("203.0.113.9:4410"))
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d should pass, got %d", i+1, rec.Code)
			}
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest("203.0.113.9:4411"))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "RATE_LIMITED") {
			t.Fatalf("expected rate limit code in body, got %s", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest("198.51.100.7:9000"))
		if rec.Code != http.StatusOK {
			t.Fatalf("other addresses should not share the window, got %d", rec.Code)
		}
	})

	t.Run("honors forwarded address", func(t *testing.T) {
		cfg := config.CheckoutConfig{RateLimitWindow: time.Minute, RateLimitPerIP: 1}
		store := &memoryWindowStore{}
		handler := CheckoutRateLimit(cfg, store, logg)(okHandler)

		req := newRequest("10.0.0.1:80")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("first request should pass, got %d", rec.Code)
		}
		if _, ok := store.counts["checkout:ip:203.0.113.9"]; !ok {
			t.Fatalf("expected forwarded address in window scope, got %v", store.counts)
		}
	})

	t.Run("blocks customer past the limit", func(t *testing.T) {
		cfg := config.CheckoutConfig{RateLimitWindow: time.Minute, RateLimitPerCustomer: 1}
		handler := CheckoutRateLimit(cfg, &memoryWindowStore{}, logg)(okHandler)

		send := func(customerID, addr string) int {
			req := newRequest(addr)
			req = req.WithContext(WithCustomerID(req.Context(), customerID))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec.Code
		}

		if code := send("cus_3001", "203.0.113.9:100"); code != http.StatusOK {
			t.Fatalf("first attempt should pass, got %d", code)
		}
		if code := send("cus_3001", "198.51.100.7:200"); code != http.StatusTooManyRequests {
			t.Fatalf("second attempt should be blocked across addresses, got %d", code)
		}
		if code := send("cus_3002", "203.0.113.9:300"); code != http.StatusOK {
			t.Fatalf("other customers should not share the window, got %d", code)
		}
	})

	t.Run("fails open when the store is degraded", func(t *testing.T) {
		cfg := config.CheckoutConfig{RateLimitWindow: time.Minute, RateLimitPerIP: 1}
		store := &memoryWindowStore{err: errors.New("connection refused")}
		handler := CheckoutRateLimit(cfg, store, logg)(okHandler)

		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest("203.0.113.9:4410"))
			if rec.Code != http.StatusOK {
				t.Fatalf("degraded store should not block, got %d", rec.Code)
			}
		}
	})

	t.Run("disabled limits pass through", func(t *testing.T) {
		store := &memoryWindowStore{}
		handler := CheckoutRateLimit(config.CheckoutConfig{RateLimitWindow: time.Minute}, store, logg)(okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest("203.0.113.9:4410"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
		if len(store.counts) != 0 {
			t.Fatalf("store should not be consulted, got %v", store.counts)
		}
	})
}
