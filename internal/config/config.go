// Package config loads the service configuration from the environment into
// typed structs. Every option is a named field with a default; there are no
// open option maps.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `env:", prefix=SERVER_"`
	Database DatabaseConfig `env:", prefix=DATABASE_"`
	Redis    RedisConfig    `env:", prefix=REDIS_"`
	Quotes   QuotesConfig   `env:", prefix=QUOTES_"`
	Refresh  RefreshConfig  `env:", prefix=REFRESH_"`
	Session  SessionConfig  `env:", prefix=SESSION_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0"`
	Port         int           `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=10s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=60s"`
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `env:"URL"`
}

// RedisConfig holds Redis settings. An empty URL disables the read-through
// watchlist cache and falls back to in-memory sessions.
type RedisConfig struct {
	URL      string        `env:"URL"`
	CacheTTL time.Duration `env:"CACHE_TTL, default=30s"`
}

// QuotesConfig holds upstream quote provider settings.
type QuotesConfig struct {
	BaseURL      string        `env:"BASE_URL, default=https://finnhub.io/api/v1"`
	APIKey       string        `env:"API_KEY"`
	Timeout      time.Duration `env:"TIMEOUT, default=5s"`
	RatePerSec   float64       `env:"RATE_PER_SEC, default=10"`
	RateBurst    int           `env:"RATE_BURST, default=20"`
}

// RefreshConfig holds the polling intervals. Defaults mirror the dashboard
// contract: 15s stock-quote widgets, 30s grid-level aggregates, 300s news.
type RefreshConfig struct {
	QuoteInterval time.Duration `env:"QUOTE_INTERVAL, default=15s"`
	GridInterval  time.Duration `env:"GRID_INTERVAL, default=30s"`
	NewsInterval  time.Duration `env:"NEWS_INTERVAL, default=300s"`
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTL time.Duration `env:"TTL, default=24h"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
