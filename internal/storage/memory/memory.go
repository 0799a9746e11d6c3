// Package memory is the in-process storage engine. It backs tests and
// single-instance deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"medtransit/internal/storage"
	"medtransit/pkg/platform/sentinel"
)

// Store keeps one record per key in a map.
type Store[K ~string, V any] struct {
	mu      sync.RWMutex
	records map[K]V
}

func New[K ~string, V any]() *Store[K, V] {
	return &Store[K, V]{records: make(map[K]V)}
}

func (s *Store[K, V]) Get(_ context.Context, id K) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.records[id]; ok {
		return storage.Clone(v), nil
	}
	var zero V
	return zero, fmt.Errorf("record %q: %w", string(id), sentinel.ErrNotFound)
}

func (s *Store[K, V]) Put(_ context.Context, id K, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = storage.Clone(value)
	return nil
}

func (s *Store[K, V]) Exists(_ context.Context, id K) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}

// Len returns the number of stored records.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset drops every record. Tests call it between cases.
func (s *Store[K, V]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[K]V)
}
