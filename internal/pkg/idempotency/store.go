// Package idempotency replays the recorded response of a POST request when
// the client retries it with the same Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	recordPrefix = "idem:record:"
	lockPrefix   = "idem:lock:"
)

// Record is the first response given for an idempotency key.
type Record struct {
	RequestID   string         `json:"request_id"`
	Params      map[string]any `json:"params"`
	Status      int            `json:"status"`
	ContentType string         `json:"content_type"`
	Body        []byte         `json:"body"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Locker marks a key as in flight while its first request runs.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Store keeps records in a fiber.Storage and locks keys through a Locker.
type Store struct {
	storage fiber.Storage
	locker  Locker
	ttl     time.Duration
}

// NewStore combines a record storage and a locker. Records expire after ttl.
func NewStore(storage fiber.Storage, locker Locker, ttl time.Duration) *Store {
	return &Store{storage: storage, locker: locker, ttl: ttl}
}

// Key derives the storage key of a request. Keys are scoped to the account
// the request acts on.
func Key(account, method, path, idempotencyKey string) string {
	sum := sha256.Sum256([]byte(account + "\x00" + method + "\x00" + path + "\x00" + idempotencyKey))
	return hex.EncodeToString(sum[:])
}

// Get returns the record stored under key, or nil.
func (s *Store) Get(key string) (*Record, error) {
	raw, err := s.storage.Get(recordPrefix + key)
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return &rec, nil
}

// Save stores rec under key.
func (s *Store) Save(key string, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	return s.storage.Set(recordPrefix+key, raw, s.ttl)
}

// Lock claims key for the duration of one request.
func (s *Store) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.locker.Lock(ctx, lockPrefix+key, ttl)
}

// Unlock releases a key claimed with Lock.
func (s *Store) Unlock(ctx context.Context, key string) error {
	return s.locker.Unlock(ctx, lockPrefix+key)
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.storage.Close()
}
