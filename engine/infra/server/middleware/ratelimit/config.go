package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config represents rate limiting configuration
type Config struct {
	GlobalRate RateConfig `yaml:"global_rate"`
	// Prefix namespaces limiter keys in the store.
	Prefix        string   `yaml:"prefix"`
	ExcludedPaths []string `yaml:"excluded_paths"`
}

// RateConfig represents a single rate limit configuration
type RateConfig struct {
	Period time.Duration `yaml:"period"`
	Limit  int64         `yaml:"limit"`
}

func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{
			Limit:  120,
			Period: time.Minute,
		},
		Prefix: "configurator:ratelimit:",
		ExcludedPaths: []string{
			"/health",
			"/metrics",
		},
	}
}

func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

func (c *Config) Validate() error {
	if c.GlobalRate.Limit <= 0 {
		return fmt.Errorf("global rate limit must be positive")
	}
	if c.GlobalRate.Period <= 0 {
		return fmt.Errorf("global rate period must be positive")
	}
	return nil
}
