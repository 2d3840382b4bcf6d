package cache

import (
	"github.com/rs/zerolog"

	"batchloader/loader"
)

type config[K comparable, V any] struct {
	store       Store[K, V]
	cacheErrors bool
	logger      zerolog.Logger
	loaderOpts  []loader.Option
}

func defaultCacheConfig[K comparable, V any]() config[K, V] {
	return config[K, V]{
		logger: zerolog.Nop(),
	}
}

// Option configures a caching Loader.
type Option[K comparable, V any] func(*config[K, V])

// WithStore sets the backing store. The default is an unbounded MapStore.
func WithStore[K comparable, V any](store Store[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.store = store
	}
}

// WithCacheErrors makes failed outcomes cacheable too. By default only
// successes are stored, so a transient resolver failure is retried on the
// next load instead of being memoized forever.
func WithCacheErrors[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.cacheErrors = true
	}
}

// WithLogger sets the logger used for cache debug logging.
// Logging is disabled by default.
func WithLogger[K comparable, V any](logger zerolog.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.logger = logger
	}
}

// WithLoaderOptions forwards options to the underlying loader constructed by
// New. Wrap ignores this option.
func WithLoaderOptions[K comparable, V any](opts ...loader.Option) Option[K, V] {
	return func(c *config[K, V]) {
		c.loaderOpts = append(c.loaderOpts, opts...)
	}
}
