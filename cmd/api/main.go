package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarchetti/orchard-backend/api"
	"github.com/dmarchetti/orchard-backend/api/controllers"
	"github.com/dmarchetti/orchard-backend/api/controllers/webhooks"
	"github.com/dmarchetti/orchard-backend/api/middleware"
	"github.com/dmarchetti/orchard-backend/api/routes"
	"github.com/dmarchetti/orchard-backend/internal/checkout"
	"github.com/dmarchetti/orchard-backend/internal/inventory"
	"github.com/dmarchetti/orchard-backend/internal/notifications"
	"github.com/dmarchetti/orchard-backend/internal/orders"
	product "github.com/dmarchetti/orchard-backend/internal/products"
	stripewebhooks "github.com/dmarchetti/orchard-backend/internal/webhooks/stripe"
	"github.com/dmarchetti/orchard-backend/pkg/config"
	"github.com/dmarchetti/orchard-backend/pkg/db"
	"github.com/dmarchetti/orchard-backend/pkg/instance"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
	"github.com/dmarchetti/orchard-backend/pkg/metrics"
	"github.com/dmarchetti/orchard-backend/pkg/migrate"
	"github.com/dmarchetti/orchard-backend/pkg/pubsub"
	"github.com/dmarchetti/orchard-backend/pkg/redis"
	pkgstripe "github.com/dmarchetti/orchard-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var notifier *notifications.Service
	if cfg.PubSub.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		notifier = notifications.NewService(notifications.NewTopicPublisher(pubsubClient), logg)
	} else {
		logg.Warn(ctx, "pubsub project not configured, order notifications disabled")
		notifier = notifications.NewService(nil, logg)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	productsRepo := product.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(
		dbClient,
		productsRepo,
		nil,
		checkout.NewStripeClient(stripeClient),
		cfg.Checkout,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhooks.NewService(stripewebhooks.ServiceParams{
		TransactionRunner: dbClient,
		OrdersRepo:        ordersRepo,
		InventoryRepo:     inventoryRepo,
		ProductLoader:     productsRepo,
		Notifier:          notifier,
		Metrics:           checkoutMetrics,
		Logger:            logg,
		DebitRetryBudget:  cfg.Checkout.DebitRetryBudget,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhooks.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookGuardTTL, "stripe-webhook")
	if err != nil {
		logg.Error(ctx, "failed to create webhook guard", err)
		os.Exit(1)
	}

	router := routes.New(routes.Params{
		Config:   cfg,
		Logger:   logg,
		Health:   controllers.NewHealthController(dbClient, redisClient, logg),
		Products: controllers.NewProductsController(productsRepo, logg),
		Stock:    controllers.NewStockController(checkoutService, logg),
		Checkout: controllers.NewCheckoutController(checkoutService, logg),
		Orders:   controllers.NewOrdersController(ordersService, logg),
		Stripe:   webhooks.NewStripeController(webhookService, webhookGuard, stripeClient.SigningSecret(), logg),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		CheckoutLimiter: middleware.CheckoutRateLimit(cfg.Checkout, redisClient, logg),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := api.NewServer(port, router, logg)

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"mode":     cfg.Checkout.Mode,
		"instance": instance.GetID(),
	})
	logg.Info(startCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "error during shutdown", err)
		}
		logg.Info(context.Background(), "api server stopped")
	}
}
