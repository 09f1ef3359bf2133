package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmarchetti/orchard-backend/api/responses"
	"github.com/dmarchetti/orchard-backend/pkg/config"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

// rateLimiterStore is the slice of the redis client the limiter needs.
type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CheckoutRateLimit throttles checkout attempts per client IP and, once the
// auth middleware has run, per customer. A limit of zero disables that
// dimension. The limiter fails open when the counter store is degraded so a
// redis outage never blocks checkout.
func CheckoutRateLimit(cfg config.CheckoutConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || (cfg.RateLimitPerIP <= 0 && cfg.RateLimitPerCustomer <= 0) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			if cfg.RateLimitPerIP > 0 {
				if ip := clientIP(r); ip != "" {
					if !allowWindow(ctx, store, logg, "checkout:ip:"+ip, cfg.RateLimitPerIP, cfg.RateLimitWindow) {
						respondRateLimited(ctx, logg, w, "ip")
						return
					}
				}
			}

			if cfg.RateLimitPerCustomer > 0 {
				if customerID, err := CustomerIDFromContext(ctx); err == nil {
					if !allowWindow(ctx, store, logg, "checkout:customer:"+customerID, cfg.RateLimitPerCustomer, cfg.RateLimitWindow) {
						respondRateLimited(ctx, logg, w, "customer")
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allowWindow(ctx context.Context, store rateLimiterStore, logg *logger.Logger, scope string, limit int64, window time.Duration) bool {
	ok, _, err := store.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "scope", scope), "checkout.rate_limit.degraded")
		}
		return true
	}
	return ok
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, dimension string) {
	if logg != nil {
		logg.Warn(logg.WithField(ctx, "dimension", dimension), "checkout.rate_limit.blocked")
	}
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "checkout attempts exceeded"))
}

// clientIP resolves the originating address, preferring proxy headers over
// the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
