package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"batchloader/loader"
)

// TTLStore is a string-keyed Store whose entries expire after a fixed TTL.
// An expired key re-enters the resolver on its next load.
type TTLStore[V any] struct {
	cache *gocache.Cache
}

// NewTTLStore creates a TTLStore with the given entry lifetime. Expired
// entries are purged in the background every cleanupInterval.
func NewTTLStore[V any](ttl, cleanupInterval time.Duration) *TTLStore[V] {
	return &TTLStore[V]{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves the stored outcome for key if it has not expired.
func (s *TTLStore[V]) Get(key string) (loader.Result[V], bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return loader.Result[V]{}, false
	}
	return v.(loader.Result[V]), true
}

// Set stores the outcome for key with the store's default TTL.
func (s *TTLStore[V]) Set(key string, res loader.Result[V]) {
	s.cache.Set(key, res, gocache.DefaultExpiration)
}

// Delete removes the entry for key.
func (s *TTLStore[V]) Delete(key string) {
	s.cache.Delete(key)
}

// Clear removes all entries.
func (s *TTLStore[V]) Clear() {
	s.cache.Flush()
}
