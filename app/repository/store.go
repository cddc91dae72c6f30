package repository

import (
	"errors"
	"sort"
	"sync"

	"github.com/ManuelReschke/PayFox/app/models"
)

var (
	// ErrAlreadyExists is returned by Put when the id is taken in the partition.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotFound is returned by Replace when there is nothing to replace.
	ErrNotFound = errors.New("record not found")
)

type entry[T models.Record] struct {
	record T
	seq    uint64
}

// store is an in-memory RecordStore keyed by partition, then id.
type store[T models.Record] struct {
	mu         sync.RWMutex
	partitions map[string]map[string]entry[T]
	seq        uint64
}

// NewStore creates an empty store.
func NewStore[T models.Record]() RecordStore[T] {
	return &store[T]{partitions: make(map[string]map[string]entry[T])}
}

// Get returns the record or the zero value and false.
func (s *store[T]) Get(partition, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.partitions[partition][id]
	return e.record, ok
}

// GetAll returns every record of the partition, newest first. Records created
// within the same second keep reverse insertion order.
func (s *store[T]) GetAll(partition string) []T {
	s.mu.RLock()
	entries := make([]entry[T], 0, len(s.partitions[partition]))
	for _, e := range s.partitions[partition] {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ci, cj := entries[i].record.GetCreated(), entries[j].record.GetCreated()
		if ci != cj {
			return ci > cj
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.record
	}
	return out
}

// Contains reports whether id exists in the partition.
func (s *store[T]) Contains(partition, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.partitions[partition][id]
	return ok
}

// Put inserts a new record, creating the partition on first use.
func (s *store[T]) Put(partition string, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partitions[partition]
	if !ok {
		p = make(map[string]entry[T])
		s.partitions[partition] = p
	}
	if _, exists := p[record.GetID()]; exists {
		return ErrAlreadyExists
	}
	s.seq++
	p[record.GetID()] = entry[T]{record: record, seq: s.seq}
	return nil
}

// Replace swaps an existing record for an updated copy, keeping its position.
func (s *store[T]) Replace(partition string, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.partitions[partition][record.GetID()]
	if !ok {
		return ErrNotFound
	}
	e.record = record
	s.partitions[partition][record.GetID()] = e
	return nil
}

// Remove deletes a record. Removing a missing record is a no-op.
func (s *store[T]) Remove(partition, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.partitions[partition], id)
}
