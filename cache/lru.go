package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"batchloader/loader"
)

// LRUStore is a bounded Store that evicts the least recently used entry once
// the configured size is reached. An evicted key re-enters the resolver on
// its next load.
type LRUStore[K comparable, V any] struct {
	cache *lru.Cache[K, loader.Result[V]]
}

// NewLRUStore creates an LRUStore holding at most size entries.
func NewLRUStore[K comparable, V any](size int) (*LRUStore[K, V], error) {
	cache, err := lru.New[K, loader.Result[V]](size)
	if err != nil {
		return nil, err
	}

	return &LRUStore[K, V]{cache: cache}, nil
}

// Get retrieves the stored outcome for key, marking it recently used.
func (s *LRUStore[K, V]) Get(key K) (loader.Result[V], bool) {
	return s.cache.Get(key)
}

// Set stores the outcome for key, possibly evicting the oldest entry.
func (s *LRUStore[K, V]) Set(key K, res loader.Result[V]) {
	s.cache.Add(key, res)
}

// Delete removes the entry for key.
func (s *LRUStore[K, V]) Delete(key K) {
	s.cache.Remove(key)
}

// Clear removes all entries.
func (s *LRUStore[K, V]) Clear() {
	s.cache.Purge()
}
