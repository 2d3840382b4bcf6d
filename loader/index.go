// Package loader provides request coalescing (batching) for key/value lookups.
//
// Many concurrent callers each load a single key. Keys issued within the same
// short window are collected into one batch, resolved with a single call to a
// user-supplied Resolver, and the per-key results are fanned back out to every
// waiting caller. Duplicate keys enqueued before a batch closes share one
// resolver slot.
//
// A batch closes when either the configured maximum batch size is reached or
// the collection window elapses. By default the window is scheduler-based: a
// closer goroutine yields a configurable number of times so that callers
// scheduled in the same window can still join the batch. WithWait switches to
// a fixed timer window instead.
//
// Example:
//
//	resolver := loader.ResolverFunc[int, string](func(ctx context.Context, keys []int) (map[int]loader.Result[string], error) {
//	    out := make(map[int]loader.Result[string], len(keys))
//	    for _, k := range keys {
//	        out[k] = loader.Result[string]{Value: fetchOne(k)}
//	    }
//	    return out, nil
//	})
//	l := loader.New(resolver, loader.WithMaxBatchSize(100))
//	name, err := l.Load(ctx, 42)
package loader
