package cache

import (
	"sync"

	"batchloader/loader"
)

// Store persists per-key outcomes for a caching Loader.
// Implementations must be safe for concurrent use by multiple goroutines.
type Store[K comparable, V any] interface {
	// Get retrieves the stored outcome for key.
	Get(key K) (loader.Result[V], bool)
	// Set stores the outcome for key, overwriting any existing entry.
	Set(key K, res loader.Result[V])
	// Delete removes the entry for key, if any.
	Delete(key K)
	// Clear removes all entries.
	Clear()
}

// MapStore is the default Store: an unbounded mutex-guarded map. Entries live
// until explicitly deleted or the store is dropped; there is no TTL and no
// size bound.
type MapStore[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]loader.Result[V]
}

// NewMapStore creates an empty MapStore.
func NewMapStore[K comparable, V any]() *MapStore[K, V] {
	return &MapStore[K, V]{
		entries: make(map[K]loader.Result[V]),
	}
}

// Get retrieves the stored outcome for key.
func (s *MapStore[K, V]) Get(key K) (loader.Result[V], bool) {
	s.mu.RLock()
	res, ok := s.entries[key]
	s.mu.RUnlock()
	return res, ok
}

// Set stores the outcome for key.
func (s *MapStore[K, V]) Set(key K, res loader.Result[V]) {
	s.mu.Lock()
	s.entries[key] = res
	s.mu.Unlock()
}

// Delete removes the entry for key.
func (s *MapStore[K, V]) Delete(key K) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear removes all entries.
func (s *MapStore[K, V]) Clear() {
	s.mu.Lock()
	s.entries = make(map[K]loader.Result[V])
	s.mu.Unlock()
}

// NoopStore is a Store that stores nothing (used when caching is disabled).
// Every Get is a miss, so a Loader backed by it behaves like the plain,
// uncached loader.
type NoopStore[K comparable, V any] struct{}

// NewNoopStore creates a new no-op store.
func NewNoopStore[K comparable, V any]() *NoopStore[K, V] {
	return &NoopStore[K, V]{}
}

// Get always returns not found.
func (s *NoopStore[K, V]) Get(key K) (loader.Result[V], bool) {
	return loader.Result[V]{}, false
}

// Set does nothing.
func (s *NoopStore[K, V]) Set(key K, res loader.Result[V]) {}

// Delete does nothing.
func (s *NoopStore[K, V]) Delete(key K) {}

// Clear does nothing.
func (s *NoopStore[K, V]) Clear() {}
