package loader

import (
	"context"
	"errors"
)

// ErrMissingResult is returned to waiters of a key the resolver was given but
// produced no entry for. The resolver contract requires an entry per key;
// omitting one fails that key only, never its batch siblings.
var ErrMissingResult = errors.New("resolver returned no result for key")

// Result is the outcome for a single key: a value or an error, never both.
type Result[V any] struct {
	Value V
	Err   error
}

// Resolver resolves a batch of keys in one call.
//
// The keys slice contains no duplicates and preserves first-enqueue order.
// The returned map must contain an entry for every key; per-key failures are
// reported via Result.Err. Returning a non-nil error fails the whole batch:
// every key in it receives that error.
//
// Implementations must be safe to call from the loader's dispatch goroutines.
type Resolver[K comparable, V any] interface {
	Resolve(ctx context.Context, keys []K) (map[K]Result[V], error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]Result[V], error)

// Resolve calls f.
func (f ResolverFunc[K, V]) Resolve(ctx context.Context, keys []K) (map[K]Result[V], error) {
	return f(ctx, keys)
}

// Thunk blocks until the key it was created for has an outcome.
type Thunk[V any] func() (V, error)
