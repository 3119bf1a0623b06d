package configstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// CachedStore wraps a Store with an in-process LRU read cache. Reads within a
// request hit the cache, giving each request an effectively immutable config
// snapshot; writes and deletes go through to the backing store and update the
// cache in place. Out-of-band writes to the backing store become visible after
// Purge (wired to a periodic job in the server).
type CachedStore struct {
	backend Store
	cache   *lru.Cache[string, string]
	hits    prometheus.Counter
	misses  prometheus.Counter
}

// NewCachedStore creates a read-through cache of size entries in front of
// backend.
func NewCachedStore(backend Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create config cache: %w", err)
	}
	return &CachedStore{backend: backend, cache: cache}, nil
}

// SetCounters enables hit/miss instrumentation of cache reads.
func (s *CachedStore) SetCounters(hits, misses prometheus.Counter) {
	s.hits = hits
	s.misses = misses
}

// Get returns the cached value at path, falling back to the backing store.
func (s *CachedStore) Get(ctx context.Context, path string) (string, error) {
	if value, ok := s.cache.Get(path); ok {
		if s.hits != nil {
			s.hits.Inc()
		}
		return value, nil
	}
	if s.misses != nil {
		s.misses.Inc()
	}
	value, err := s.backend.Get(ctx, path)
	if err != nil {
		return "", err
	}
	s.cache.Add(path, value)
	return value, nil
}

// Set writes through to the backing store and updates the cache.
func (s *CachedStore) Set(ctx context.Context, path, value string) error {
	if err := s.backend.Set(ctx, path, value); err != nil {
		return err
	}
	s.cache.Add(path, value)
	return nil
}

// Delete removes the value from the backing store and the cache.
func (s *CachedStore) Delete(ctx context.Context, path string) error {
	if err := s.backend.Delete(ctx, path); err != nil {
		return err
	}
	s.cache.Remove(path)
	return nil
}

// Purge drops every cached entry.
func (s *CachedStore) Purge() {
	s.cache.Purge()
}
