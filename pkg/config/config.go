package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/dmarchetti/orchard-backend/pkg/enums"
)

const (
	EnvPrefix = "orchard"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("ORCHARD_DB_DSN is required")
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORCHARD_APP_ENV" required:"true"`
	Port         string `envconfig:"ORCHARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORCHARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORCHARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORCHARD_DB_DSN"`
	Driver string `envconfig:"ORCHARD_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ORCHARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORCHARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORCHARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORCHARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORCHARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORCHARD_REDIS_ADDR"`
	Password     string        `envconfig:"ORCHARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORCHARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORCHARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORCHARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORCHARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORCHARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORCHARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ORCHARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORCHARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ORCHARD_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey string `envconfig:"ORCHARD_STRIPE_API_KEY"`
	Secret string `envconfig:"ORCHARD_STRIPE_SECRET"`
	Env    string `envconfig:"ORCHARD_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CheckoutConfig tunes the checkout orchestrator.
type CheckoutConfig struct {
	// Mode selects when inventory is committed relative to payment:
	// "verify_then_pay" leaves stock untouched until the success webhook,
	// "reserve_then_pay" holds stock at authorization time.
	Mode                string        `envconfig:"ORCHARD_CHECKOUT_MODE" default:"verify_then_pay"`
	MinimumPayableCents int           `envconfig:"ORCHARD_CHECKOUT_MINIMUM_PAYABLE_CENTS" default:"50"`
	Currency            string        `envconfig:"ORCHARD_CHECKOUT_CURRENCY" default:"usd"`
	WebhookGuardTTL     time.Duration `envconfig:"ORCHARD_CHECKOUT_WEBHOOK_GUARD_TTL" default:"24h"`
	DebitRetryBudget    int           `envconfig:"ORCHARD_CHECKOUT_DEBIT_RETRY_BUDGET" default:"3"`

	// Rate limits apply to checkout attempts per fixed window. A limit of
	// zero disables that dimension.
	RateLimitWindow      time.Duration `envconfig:"ORCHARD_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerCustomer int64         `envconfig:"ORCHARD_CHECKOUT_RATE_LIMIT_PER_CUSTOMER" default:"10"`
	RateLimitPerIP       int64         `envconfig:"ORCHARD_CHECKOUT_RATE_LIMIT_PER_IP" default:"30"`
}

func (c CheckoutConfig) validate() error {
	if _, err := enums.ParseCheckoutMode(c.Mode); err != nil {
		return err
	}
	if c.MinimumPayableCents < 0 {
		return fmt.Errorf("minimum payable must be non-negative")
	}
	if (c.RateLimitPerCustomer > 0 || c.RateLimitPerIP > 0) && c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"ORCHARD_PUBSUB_PROJECT_ID"`
	NotificationTopic string `envconfig:"ORCHARD_PUBSUB_NOTIFICATION_TOPIC" default:"orchard-order-notifications"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORCHARD_FEATURE_AUTO_MIGRATE" default:"false"`
}
