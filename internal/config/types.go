package config

import "time"

// Config represents the demo configuration structure
type Config struct {
	LogLevel     string       `json:"logLevel"`
	MaxBatchSize int          `json:"maxBatchSize"`
	YieldCount   int          `json:"yieldCount"`
	WaitMs       int          `json:"waitMs"` // 0 means scheduler-yield batching instead of a timer window
	Workers      int          `json:"workers"`
	Keys         int          `json:"keys"`
	Cache        *CacheConfig `json:"cache,omitempty"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	Enabled     bool `json:"enabled"`
	CacheErrors bool `json:"cacheErrors"`
	LRUSize     int  `json:"lruSize"` // 0 means unbounded map store
}

// Default values
const (
	DefaultLogLevel     = "info"
	DefaultMaxBatchSize = 25
	DefaultYieldCount   = 10
	DefaultWaitMs       = 0
	DefaultWorkers      = 8
	DefaultKeys         = 100
)

// GetWaitDuration returns the batch collection window as a duration
func (c *Config) GetWaitDuration() time.Duration {
	return time.Duration(c.WaitMs) * time.Millisecond
}
