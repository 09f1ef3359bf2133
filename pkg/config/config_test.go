package config

import (
	"testing"
	"time"
)

func TestCheckoutConfigValidate(t *testing.T) {
	cfg := CheckoutConfig{Mode: "verify_then_pay", MinimumPayableCents: 50}
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Mode = "reserve_then_pay"
	if err := cfg.validate(); err != nil {
		t.Fatalf("reserve mode should validate, got %v", err)
	}

	cfg.Mode = "pay_then_hope"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}

	cfg = CheckoutConfig{Mode: "verify_then_pay", MinimumPayableCents: -1}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for negative minimum")
	}

	cfg = CheckoutConfig{Mode: "verify_then_pay", RateLimitPerIP: 30}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for rate limit without a window")
	}
	cfg.RateLimitWindow = time.Minute
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected rate limited config to validate, got %v", err)
	}
}

func TestStripeEnvironmentNormalization(t *testing.T) {
	if (StripeConfig{Env: " Test "}).Environment() != "test" {
		t.Fatal("environment should be trimmed and lowered")
	}
	if (StripeConfig{}).Environment() != "test" {
		t.Fatal("blank environment should default to test")
	}
	if (StripeConfig{Env: "live"}).Environment() != "live" {
		t.Fatal("live should pass through")
	}
}

func TestAppEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "DEV"}).IsDev() {
		t.Fatal("IsDev should be case-insensitive")
	}
	if !(AppConfig{Env: "prod"}).IsProd() {
		t.Fatal("IsProd should match prod")
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("ORCHARD_APP_ENV", "dev")
	t.Setenv("ORCHARD_APP_PORT", "8080")
	t.Setenv("ORCHARD_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ORCHARD_JWT_SECRET", "secret")
	t.Setenv("ORCHARD_JWT_ISSUER", "orchard")
	t.Setenv("ORCHARD_DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DSN is missing")
	}

	t.Setenv("ORCHARD_DB_DSN", "postgres://localhost:5432/orchard")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.Checkout.Mode != "verify_then_pay" {
		t.Fatalf("expected default mode, got %q", cfg.Checkout.Mode)
	}
	if cfg.Checkout.MinimumPayableCents != 50 {
		t.Fatalf("expected default minimum, got %d", cfg.Checkout.MinimumPayableCents)
	}
	if cfg.Checkout.WebhookGuardTTL != 24*time.Hour {
		t.Fatalf("expected default guard ttl, got %s", cfg.Checkout.WebhookGuardTTL)
	}
}
