package loader

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultYieldCount is the number of scheduler yields the closer goroutine
// performs before closing a batch when no wait duration is configured.
const DefaultYieldCount = 10

type config struct {
	maxBatchSize int
	yieldCount   int
	wait         time.Duration
	logger       zerolog.Logger
}

func defaultConfig() config {
	return config{
		yieldCount: DefaultYieldCount,
		logger:     zerolog.Nop(),
	}
}

// Option configures a Loader.
type Option func(*config)

// WithMaxBatchSize caps the number of distinct keys per resolver invocation.
// Reaching the cap closes the batch immediately; overflow keys start the next
// batch. Zero (the default) means unbounded: a batch is never split.
func WithMaxBatchSize(n int) Option {
	return func(c *config) {
		c.maxBatchSize = n
	}
}

// WithYieldCount sets how many times the closer goroutine yields the
// scheduler before closing a batch. Higher values give concurrent callers
// more chances to join the batch. Ignored when WithWait is set.
func WithYieldCount(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.yieldCount = n
		}
	}
}

// WithWait replaces scheduler yielding with a fixed timer window: a batch
// stays open for d after its first key before dispatching.
func WithWait(d time.Duration) Option {
	return func(c *config) {
		c.wait = d
	}
}

// WithLogger sets the logger used for dispatch debug logging.
// Logging is disabled by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
