package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchetti/orchard-backend/api/controllers"
	"github.com/dmarchetti/orchard-backend/api/controllers/webhooks"
	"github.com/dmarchetti/orchard-backend/api/middleware"
	"github.com/dmarchetti/orchard-backend/pkg/config"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

// Params collects everything the router mounts.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Health   *controllers.HealthController
	Products *controllers.ProductsController
	Stock    *controllers.StockController
	Checkout *controllers.CheckoutController
	Orders   *controllers.OrdersController
	Stripe   *webhooks.StripeController
	Metrics  http.Handler

	// CheckoutLimiter throttles checkout attempts. Nil leaves the route
	// unthrottled.
	CheckoutLimiter func(http.Handler) http.Handler
}

// New assembles the HTTP routing tree.
func New(p Params) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(p.Logger))
	r.Use(middleware.RequestID(p.Logger))
	r.Use(middleware.Logging(p.Logger))
	r.Use(middleware.CORS())

	r.Get("/health/live", p.Health.Live)
	r.Get("/health/ready", p.Health.Ready)

	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Webhooks authenticate by signature, not bearer token.
		r.Post("/webhooks/stripe", p.Stripe.Handle)

		r.Get("/products", p.Products.List)
		r.Get("/products/{id}", p.Products.Get)
		r.Post("/stock/verify", p.Stock.Verify)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Config.JWT, p.Logger))

			checkout := r
			if p.CheckoutLimiter != nil {
				checkout = r.With(p.CheckoutLimiter)
			}
			checkout.Post("/checkout", p.Checkout.Begin)

			r.Get("/orders", p.Orders.List)
		})
	})

	return r
}
