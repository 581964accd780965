package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds runtime configuration for the API server, worker and admin CLI.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppPort           string        `envconfig:"APP_PORT" default:"8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	Currency          string        `envconfig:"CURRENCY" default:"PKR"`
	MarkupPercent     float64       `envconfig:"MARKUP_PERCENT" default:"30"`
	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`
	SaleLockTTL       time.Duration `envconfig:"SALE_LOCK_TTL" default:"10s"`
	CartTTL           time.Duration `envconfig:"CART_TTL" default:"168h"`
	PublicRateLimit   int           `envconfig:"PUBLIC_RATE_LIMIT" default:"20"`
	LowStockScanCron  string        `envconfig:"LOW_STOCK_SCAN_CRON" default:"@every 1h"`

	// StockOversellPolicy selects how stock records absorb a sale larger than stock: "query" or "write".
	StockOversellPolicy string `envconfig:"STOCK_OVERSELL_POLICY" default:"query"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if cfg.LowStockThreshold < 0 {
		return nil, errors.New("low stock threshold must be >= 0")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// RedisEnabled reports whether Redis backed features (cart, sale locks, jobs) are available.
func (c *Config) RedisEnabled() bool {
	return c != nil && c.RedisAddr != ""
}

// Markup returns the suggested sale price markup as a fraction (30 -> 0.30).
func (c *Config) Markup() decimal.Decimal {
	return decimal.NewFromFloat(c.MarkupPercent).Div(decimal.NewFromInt(100))
}
