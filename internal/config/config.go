package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	// MaxBatchSize 0 would mean "never split"; the demo always caps batches
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.YieldCount == 0 {
		cfg.YieldCount = DefaultYieldCount
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Keys == 0 {
		cfg.Keys = DefaultKeys
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.MaxBatchSize < 0 {
		return fmt.Errorf("maxBatchSize must be non-negative")
	}

	if cfg.YieldCount < 0 {
		return fmt.Errorf("yieldCount must be non-negative")
	}

	if cfg.WaitMs < 0 {
		return fmt.Errorf("waitMs must be non-negative")
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}

	if cfg.Keys < 1 {
		return fmt.Errorf("keys must be positive")
	}

	// Validate cache config if provided
	if cfg.Cache != nil && cfg.Cache.Enabled {
		if cfg.Cache.LRUSize < 0 {
			return fmt.Errorf("cache.lruSize must be non-negative")
		}
	}

	return nil
}
