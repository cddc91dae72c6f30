package idempotency

import (
	"context"
	"strconv"
	"time"

	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
)

// recordsDatabase keeps idempotency records apart from other cache users.
const recordsDatabase = 1

// redisLocker takes in-flight locks with SETNX.
type redisLocker struct {
	client *redis.Client
}

func (l redisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return cache.Lock(ctx, l.client, key, ttl)
}

func (l redisLocker) Unlock(ctx context.Context, key string) error {
	return cache.Unlock(ctx, l.client, key)
}

// NewRedisStore keeps records in Redis so that several PayFox processes
// share them. client must already be connected to the server opts names.
func NewRedisStore(client *redis.Client, opts cache.Options, ttl time.Duration) *Store {
	port, err := strconv.Atoi(opts.Port)
	if err != nil {
		port = 6379
	}
	storage := redisstorage.New(redisstorage.Config{
		Host:     opts.Host,
		Port:     port,
		Password: opts.Password,
		Database: recordsDatabase,
		Reset:    false,
	})
	return NewStore(storage, redisLocker{client: client}, ttl)
}
