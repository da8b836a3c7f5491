package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goldenstat/identity/internal/platform/resilience"
)

type cachedValue struct {
	value    any
	storedAt time.Time
}

// Store is an in-process TTL cache for resolve-path lookups. Keys are
// namespaced by prefix ("player:name:", "mapping:targets:") so writers can
// drop a whole namespace without tracking individual keys. A ttl of zero
// disables expiry.
type Store struct {
	mu     sync.RWMutex
	values map[string]cachedValue
	ttl    time.Duration
	flight resilience.SingleFlight
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		values: make(map[string]cachedValue),
		ttl:    ttl,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	cached, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.expired(cached) {
		s.mu.Lock()
		if current, ok := s.values[key]; ok && s.expired(current) {
			delete(s.values, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return cached.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.values[key] = cachedValue{value: value, storedAt: time.Now()}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// DeletePrefix drops every key in a namespace. Mapping writers call this
// instead of invalidating per name because one mapping row can affect several
// cached names.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value for key or runs loader once, caching its
// result. Concurrent callers of the same key share one loader execution.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) expired(cached cachedValue) bool {
	return s.ttl > 0 && time.Since(cached.storedAt) >= s.ttl
}
