package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// gcInterval is how often expired records are swept from memory.
const gcInterval = 10 * time.Second

// memoryLocker takes in-flight locks that fail fast when the key is held.
type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryStore keeps records in process memory.
func NewMemoryStore(ttl time.Duration) *Store {
	storage := memory.New(memory.Config{GCInterval: gcInterval})
	return NewStore(storage, &memoryLocker{locks: make(map[string]time.Time)}, ttl)
}

func (l *memoryLocker) Lock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if until, ok := l.locks[key]; ok && (until.IsZero() || now.Before(until)) {
		return false, nil
	}
	var until time.Time
	if ttl > 0 {
		until = now.Add(ttl)
	}
	l.locks[key] = until
	return true, nil
}

func (l *memoryLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}
