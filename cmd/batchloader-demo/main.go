package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"batchloader/cache"
	"batchloader/internal/config"
	"batchloader/loader"
)

// slowResolver simulates an expensive backing store: every Resolve costs one
// round-trip regardless of how many keys it carries.
type slowResolver struct {
	calls  atomic.Int64
	keys   atomic.Int64
	logger zerolog.Logger
}

func (r *slowResolver) Resolve(ctx context.Context, keys []int) (map[int]loader.Result[string], error) {
	r.calls.Add(1)
	r.keys.Add(int64(len(keys)))

	r.logger.Debug().Int("keys", len(keys)).Msg("resolving batch")
	time.Sleep(20 * time.Millisecond)

	out := make(map[int]loader.Result[string], len(keys))
	for _, k := range keys {
		out[k] = loader.Result[string]{Value: fmt.Sprintf("record-%d", k)}
	}
	return out, nil
}

// kvLoader is the surface shared by the plain and the caching loader.
type kvLoader interface {
	Load(ctx context.Context, key int) (string, error)
	LoadAll(ctx context.Context, keys []int) ([]string, []error)
}

func main() {
	// Parse flags
	configPath := flag.String("config", "", "path to config file (defaults used when empty)")
	flag.Parse()

	// Load config
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			// Basic logger for startup errors
			log := zerolog.New(os.Stderr).With().Timestamp().Logger()
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Int("maxBatchSize", cfg.MaxBatchSize).
		Int("waitMs", cfg.WaitMs).
		Int("workers", cfg.Workers).
		Int("keys", cfg.Keys).
		Bool("cache", cfg.Cache != nil && cfg.Cache.Enabled).
		Msg("starting batchloader demo")

	resolver := &slowResolver{logger: logger.With().Str("component", "resolver").Logger()}

	loaderOpts := []loader.Option{
		loader.WithMaxBatchSize(cfg.MaxBatchSize),
		loader.WithYieldCount(cfg.YieldCount),
		loader.WithLogger(logger),
	}
	if cfg.WaitMs > 0 {
		loaderOpts = append(loaderOpts, loader.WithWait(cfg.GetWaitDuration()))
	}

	l, err := buildLoader(cfg, resolver, loaderOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build loader")
	}

	start := time.Now()
	ctx := context.Background()

	// Concurrent single-key callers; overlapping keys coalesce into shared
	// batches and, with the cache enabled, repeat keys skip batching.
	var g errgroup.Group
	for w := 0; w < cfg.Workers; w++ {
		offset := w
		g.Go(func() error {
			for i := 0; i < cfg.Keys; i++ {
				key := (i + offset*3) % cfg.Keys
				if _, err := l.Load(ctx, key); err != nil {
					return fmt.Errorf("load key %d: %w", key, err)
				}
			}
			return nil
		})
	}

	// One multi-key caller with duplicates
	g.Go(func() error {
		keys := make([]int, 0, 10)
		for i := 0; i < 10; i++ {
			keys = append(keys, i%5)
		}
		values, errs := l.LoadAll(ctx, keys)
		for i, err := range errs {
			if err != nil {
				return fmt.Errorf("load key %d: %w", keys[i], err)
			}
		}
		logger.Info().Strs("values", values).Msg("multi-key load completed")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("demo workload failed")
	}

	totalLoads := cfg.Workers*cfg.Keys + 10
	logger.Info().
		Int("loads", totalLoads).
		Int64("resolverCalls", resolver.calls.Load()).
		Int64("resolvedKeys", resolver.keys.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("demo finished")
}

// buildLoader wires the plain or caching loader from config
func buildLoader(cfg *config.Config, resolver loader.Resolver[int, string], loaderOpts []loader.Option) (kvLoader, error) {
	if cfg.Cache == nil || !cfg.Cache.Enabled {
		return loader.New(resolver, loaderOpts...), nil
	}

	cacheOpts := []cache.Option[int, string]{
		cache.WithLoaderOptions[int, string](loaderOpts...),
	}
	if cfg.Cache.CacheErrors {
		cacheOpts = append(cacheOpts, cache.WithCacheErrors[int, string]())
	}
	if cfg.Cache.LRUSize > 0 {
		store, err := cache.NewLRUStore[int, string](cfg.Cache.LRUSize)
		if err != nil {
			return nil, err
		}
		cacheOpts = append(cacheOpts, cache.WithStore[int, string](store))
	}

	return cache.New(resolver, cacheOpts...), nil
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	// Set log level
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Configure output
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
