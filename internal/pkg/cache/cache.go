package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Options locate the Redis server backing idempotency records.
type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is the host:port pair of the server.
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%s", o.Host, o.Port)
}

// NewClient connects to Redis and pings it once. An unreachable server is
// reported as an error so that the caller can fall back to memory.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr(),
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to cache at %s: %w", opts.Addr(), err)
	}
	log.Infof("[Cache] Successfully connected to %s: %s", opts.Addr(), pong)
	return client, nil
}

// Lock takes key for ttl unless somebody else holds it.
func Lock(ctx context.Context, client *redis.Client, key string, ttl time.Duration) (bool, error) {
	return client.SetNX(ctx, key, "1", ttl).Result()
}

// Unlock releases a key taken with Lock.
func Unlock(ctx context.Context, client *redis.Client, key string) error {
	return client.Del(ctx, key).Err()
}
