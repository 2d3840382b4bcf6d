package loader

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Loader coalesces concurrent key lookups into batched resolver calls.
//
// A single *Loader is the shareable handle: pass it to any number of
// goroutines. All of them enqueue into the same registry and dispatcher.
type Loader[K comparable, V any] struct {
	resolver     Resolver[K, V]
	maxBatchSize int
	yieldCount   int
	wait         time.Duration
	logger       zerolog.Logger

	mu      sync.Mutex
	current *batch[K, V]
}

// batch is the open registry for one dispatch: the ordered set of unique keys
// plus the waiters attached to each. It is mutated only under Loader.mu and
// frozen once swapped out.
type batch[K comparable, V any] struct {
	keys    []K
	waiters map[K][]chan Result[V]
	timer   *time.Timer
}

// New creates a Loader that batches lookups against resolver.
func New[K comparable, V any](resolver Resolver[K, V], opts ...Option) *Loader[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Loader[K, V]{
		resolver:     resolver,
		maxBatchSize: cfg.maxBatchSize,
		yieldCount:   cfg.yieldCount,
		wait:         cfg.wait,
		logger:       cfg.logger.With().Str("component", "loader").Logger(),
	}
}

// MaxBatchSize returns the configured batch size cap, 0 meaning unbounded.
func (l *Loader[K, V]) MaxBatchSize() int {
	return l.maxBatchSize
}

// Load fetches the value for key, blocking until the batch containing the key
// has been resolved. Concurrent loads of equal keys share one resolver slot.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(ctx, key)()
}

// LoadThunk enqueues key and returns a thunk that blocks for its outcome.
// It never blocks itself, so one goroutine can register interest in many
// loaders before awaiting any of them.
//
// If ctx is done before the outcome arrives the thunk returns ctx.Err(). The
// waiter stays attached and is still completed by the dispatcher; giving up
// on a thunk never cancels the shared resolver call.
func (l *Loader[K, V]) LoadThunk(ctx context.Context, key K) Thunk[V] {
	ch := l.enqueue(ctx, key)

	return func() (V, error) {
		select {
		case res := <-ch:
			return res.Value, res.Err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}

// LoadAll fetches many keys at once. The returned values and errors are
// positionally aligned with keys, duplicates included; duplicate keys still
// occupy a single slot in the underlying batch.
func (l *Loader[K, V]) LoadAll(ctx context.Context, keys []K) ([]V, []error) {
	thunks := make([]Thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.LoadThunk(ctx, key)
	}

	values := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, thunk := range thunks {
		values[i], errs[i] = thunk()
	}
	return values, errs
}

// LoadAllThunk enqueues all keys and returns a function that blocks for the
// positionally aligned outcomes.
func (l *Loader[K, V]) LoadAllThunk(ctx context.Context, keys []K) func() ([]V, []error) {
	thunks := make([]Thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.LoadThunk(ctx, key)
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

// enqueue registers interest in key and returns the waiter channel. Phase 1
// of dispatch: everything here happens under the registry mutex and never
// touches the resolver.
func (l *Loader[K, V]) enqueue(ctx context.Context, key K) <-chan Result[V] {
	// Buffered so the dispatcher never blocks on an abandoned waiter.
	ch := make(chan Result[V], 1)

	l.mu.Lock()
	b := l.current
	if b == nil {
		b = &batch[K, V]{waiters: make(map[K][]chan Result[V])}
		l.current = b
		l.scheduleClose(ctx, b)
	}

	if _, open := b.waiters[key]; !open {
		b.keys = append(b.keys, key)
	}
	b.waiters[key] = append(b.waiters[key], ch)

	var full *batch[K, V]
	if l.maxBatchSize > 0 && len(b.keys) >= l.maxBatchSize {
		l.current = nil
		full = b
	}
	l.mu.Unlock()

	if full != nil {
		if full.timer != nil {
			full.timer.Stop()
		}
		go l.dispatch(ctx, full)
	}
	return ch
}

// scheduleClose arranges for b to be dispatched once the collection window
// ends. Called with l.mu held, on the enqueue that opened b.
func (l *Loader[K, V]) scheduleClose(ctx context.Context, b *batch[K, V]) {
	if l.wait > 0 {
		b.timer = time.AfterFunc(l.wait, func() {
			l.closeAndDispatch(ctx, b)
		})
		return
	}

	go func() {
		// Yield so callers runnable in the same window get to enqueue
		// before the batch closes.
		for i := 0; i < l.yieldCount; i++ {
			runtime.Gosched()
		}
		l.closeAndDispatch(ctx, b)
	}()
}

// closeAndDispatch swaps b out of the registry and resolves it. A batch that
// was already closed by the size trigger is left alone.
func (l *Loader[K, V]) closeAndDispatch(ctx context.Context, b *batch[K, V]) {
	l.mu.Lock()
	if l.current != b {
		l.mu.Unlock()
		return
	}
	l.current = nil
	l.mu.Unlock()

	l.dispatch(ctx, b)
}

// dispatch is phase 2: b is frozen and no lock is held, so callers keep
// enqueuing into the next batch while the resolver works.
func (l *Loader[K, V]) dispatch(ctx context.Context, b *batch[K, V]) {
	if len(b.keys) == 0 {
		return
	}

	l.logger.Debug().
		Int("keys", len(b.keys)).
		Msg("dispatching batch")

	// A caller abandoning its thunk must not cancel the call for the
	// other waiters sharing the batch.
	results, err := l.resolver.Resolve(context.WithoutCancel(ctx), b.keys)
	if err != nil {
		l.logger.Debug().
			Err(err).
			Int("keys", len(b.keys)).
			Msg("batch resolver failed")
	}

	for _, key := range b.keys {
		res, ok := results[key]
		switch {
		case err != nil:
			res = Result[V]{Err: err}
		case !ok:
			res = Result[V]{Err: fmt.Errorf("%w: %v", ErrMissingResult, key)}
		}
		for _, ch := range b.waiters[key] {
			ch <- res
		}
	}

	l.logger.Debug().
		Int("keys", len(b.keys)).
		Msg("batch completed")
}
