package configstore

import (
	"context"
	"sync"
)

// Store is a scoped key-value configuration store. A missing path is not an
// error; Get returns an empty string for it. Errors are reserved for the
// backing store being unreachable.
type Store interface {
	Get(ctx context.Context, path string) (string, error)
	Set(ctx context.Context, path, value string) error
	Delete(ctx context.Context, path string) error
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value at path, or "" when unset.
func (s *MemoryStore) Get(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[path], nil
}

// Set stores value at path.
func (s *MemoryStore) Set(_ context.Context, path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[path] = value
	return nil
}

// Delete removes the value at path.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, path)
	return nil
}
