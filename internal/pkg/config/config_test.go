package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/env"
)

func TestLoadDefaults(t *testing.T) {
	env.Env = map[string]string{}
	t.Cleanup(func() { env.Env = nil })

	s := Load()
	require.NoError(t, s.Validate())
	assert.Equal(t, "localhost:8420", s.Addr())
	assert.Equal(t, time.Second, s.DisputeDelay)
	assert.Equal(t, IdempotencyStoreMemory, s.IdempotencyStore)
	assert.Equal(t, 24*time.Hour, s.IdempotencyTTL)
	assert.Equal(t, "localhost:6379", s.Cache.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	env.Env = map[string]string{
		"APP_PORT":          "9000",
		"DISPUTE_DELAY":     "50ms",
		"IDEMPOTENCY_STORE": "redis",
		"RATE_LIMIT_MAX":    "120",
	}
	t.Cleanup(func() { env.Env = nil })

	s := Load()
	require.NoError(t, s.Validate())
	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, 50*time.Millisecond, s.DisputeDelay)
	assert.Equal(t, IdempotencyStoreRedis, s.IdempotencyStore)
	assert.Equal(t, 120, s.RateLimitMax)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"port", func(s *Settings) { s.Port = 70000 }},
		{"workers", func(s *Settings) { s.JobWorkers = 0 }},
		{"store", func(s *Settings) { s.IdempotencyStore = "disk" }},
		{"ttl", func(s *Settings) { s.IdempotencyTTL = 0 }},
		{"host", func(s *Settings) { s.Host = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.Env = map[string]string{}
			t.Cleanup(func() { env.Env = nil })
			s := Load()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
