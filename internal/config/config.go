package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read once from the environment at startup; nothing here is
// hot-reloaded.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	// BaseURL is the redirect fallback when a checkout request carries no
	// Origin header.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// RedisAddr enables the Redis cart persister; empty keeps carts in
	// process memory.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"1m"`

	CheckoutRateMax    int           `envconfig:"CHECKOUT_RATE_MAX" default:"10"`
	CheckoutRateWindow time.Duration `envconfig:"CHECKOUT_RATE_WINDOW" default:"1m"`
	WebhookRateMax     int           `envconfig:"WEBHOOK_RATE_MAX" default:"120"`
	WebhookRateWindow  time.Duration `envconfig:"WEBHOOK_RATE_WINDOW" default:"1m"`

	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
