// Package config holds the typed server settings read from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
	"github.com/ManuelReschke/PayFox/internal/pkg/env"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

const (
	IdempotencyStoreMemory = "memory"
	IdempotencyStoreRedis  = "redis"
)

// Settings configure one PayFox server.
type Settings struct {
	Host             string        `validate:"required"`
	Port             int           `validate:"min=1,max=65535"`
	DisputeDelay     time.Duration `validate:"min=0"`
	JobWorkers       int           `validate:"min=1,max=64"`
	IdempotencyStore string        `validate:"oneof=memory redis"`
	IdempotencyTTL   time.Duration `validate:"gt=0"`
	RateLimitMax     int           `validate:"min=0"`
	Cache            cache.Options
	MetricsUser      string
	MetricsPassword  string
}

// Load reads settings from the environment and the loaded .env file.
func Load() Settings {
	return Settings{
		Host:             env.GetEnv("APP_HOST", "localhost"),
		Port:             env.GetInt("APP_PORT", 8420),
		DisputeDelay:     env.GetDuration("DISPUTE_DELAY", time.Second),
		JobWorkers:       env.GetInt("JOB_WORKERS", 1),
		IdempotencyStore: env.GetEnv("IDEMPOTENCY_STORE", IdempotencyStoreMemory),
		IdempotencyTTL:   env.GetDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		Cache: cache.Options{
			Host:     env.GetEnv("CACHE_HOST", "localhost"),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		RateLimitMax:    env.GetInt("RATE_LIMIT_MAX", 0),
		MetricsUser:     env.GetEnv("METRICS_USER", "admin"),
		MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
	}
}

// Validate reports the first setting out of range.
func (s Settings) Validate() error {
	if err := validation.Validator().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
