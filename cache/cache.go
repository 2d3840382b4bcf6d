// Package cache adds per-key memoization on top of a loader.Loader.
//
// A cache.Loader checks its Store before enqueuing a key; hits return the
// stored outcome without any batch participation, misses delegate to the
// wrapped loader and store the outcome on completion. Entries are never
// evicted by the Loader itself: invalidation is explicit via Clear and
// ClearAll, and any eviction policy belongs to the Store implementation.
//
// Deduplication of concurrent misses is guaranteed only within one batch.
// Two misses for the same key that straddle a batch boundary may each reach
// the resolver: fully coalescing them would require holding a lock across the
// asynchronous resolver round-trip. This is a fixed trade-off of the design.
package cache

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"batchloader/loader"
)

// Loader wraps a loader.Loader with a memoizing Store.
type Loader[K comparable, V any] struct {
	loader      *loader.Loader[K, V]
	store       Store[K, V]
	cacheErrors bool
	logger      zerolog.Logger
}

// New creates a caching loader over a fresh loader.Loader for resolver.
// Without WithStore it memoizes into an unbounded MapStore.
func New[K comparable, V any](resolver loader.Resolver[K, V], opts ...Option[K, V]) *Loader[K, V] {
	cfg := defaultCacheConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newWithConfig(loader.New(resolver, cfg.loaderOpts...), cfg)
}

// Wrap adds caching to an existing loader. The underlying loader keeps
// serving its other callers directly; only loads through the returned Loader
// consult the store. Loader options passed here are ignored since the
// underlying loader already exists.
func Wrap[K comparable, V any](l *loader.Loader[K, V], opts ...Option[K, V]) *Loader[K, V] {
	cfg := defaultCacheConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newWithConfig(l, cfg)
}

func newWithConfig[K comparable, V any](l *loader.Loader[K, V], cfg config[K, V]) *Loader[K, V] {
	store := cfg.store
	if store == nil {
		store = NewMapStore[K, V]()
	}

	return &Loader[K, V]{
		loader:      l,
		store:       store,
		cacheErrors: cfg.cacheErrors,
		logger:      cfg.logger.With().Str("component", "cache").Logger(),
	}
}

// Load fetches the value for key, consulting the store first.
func (c *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return c.LoadThunk(ctx, key)()
}

// LoadThunk returns a thunk for key's outcome. On a cache hit the thunk
// completes immediately; on a miss the key is enqueued into the underlying
// loader and the outcome is stored once resolved.
func (c *Loader[K, V]) LoadThunk(ctx context.Context, key K) loader.Thunk[V] {
	if res, ok := c.store.Get(key); ok {
		c.logger.Debug().Msg("cache hit")
		return func() (V, error) {
			return res.Value, res.Err
		}
	}

	thunk := c.loader.LoadThunk(ctx, key)
	return func() (V, error) {
		value, err := thunk()
		if c.storable(err) {
			c.store.Set(key, loader.Result[V]{Value: value, Err: err})
		}
		return value, err
	}
}

// storable reports whether an outcome with the given error may be written to
// the store. A caller that gave up on its context produced no key outcome, so
// context errors are never stored even when error caching is on.
func (c *Loader[K, V]) storable(err error) bool {
	if err == nil {
		return true
	}
	if !c.cacheErrors {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// LoadAll fetches many keys, mixing cache hits and batched misses. Values and
// errors are positionally aligned with keys, duplicates included.
func (c *Loader[K, V]) LoadAll(ctx context.Context, keys []K) ([]V, []error) {
	return c.LoadAllThunk(ctx, keys)()
}

// LoadAllThunk enqueues all missing keys and returns a function that blocks
// for the positionally aligned outcomes.
func (c *Loader[K, V]) LoadAllThunk(ctx context.Context, keys []K) func() ([]V, []error) {
	thunks := make([]loader.Thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = c.LoadThunk(ctx, key)
	}

	return func() ([]V, []error) {
		values := make([]V, len(keys))
		errs := make([]error, len(keys))
		for i, thunk := range thunks {
			values[i], errs[i] = thunk()
		}
		return values, errs
	}
}

// Prime stores value for key if the key has no entry yet. It reports whether
// the value was stored. To overwrite, Clear the key first.
func (c *Loader[K, V]) Prime(key K, value V) bool {
	if _, ok := c.store.Get(key); ok {
		return false
	}
	c.store.Set(key, loader.Result[V]{Value: value})
	return true
}

// Clear removes key's entry, if any. The next load re-enters the resolver.
func (c *Loader[K, V]) Clear(key K) {
	c.store.Delete(key)
}

// ClearAll removes every entry from the store.
func (c *Loader[K, V]) ClearAll() {
	c.store.Clear()
}
