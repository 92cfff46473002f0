// Package worker provides background jobs for the flight delay service.
package worker

import (
	"time"

	"github.com/flightdelay/flightdelay/internal/airport"
)

// WarmupConfig holds configuration for the forecast warm-up job.
type WarmupConfig struct {
	// Airports are the airports whose forecasts are prefetched.
	// If empty, uses the built-in airport table.
	Airports []airport.Coordinate

	// Concurrency is the number of concurrent prefetches.
	// Default: 3
	Concurrency int

	// Timeout bounds each prefetch.
	// Default: 15 seconds
	Timeout time.Duration

	// Schedule is a cron spec, e.g. "@every 10m". Empty disables scheduling.
	Schedule string
}

// DefaultWarmupConfig returns the default warm-up configuration.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Airports:    airport.Builtin(),
		Concurrency: 3,
		Timeout:     15 * time.Second,
		Schedule:    "@every 10m",
	}
}

func (c WarmupConfig) withDefaults() WarmupConfig {
	d := DefaultWarmupConfig()
	if len(c.Airports) == 0 {
		c.Airports = d.Airports
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}
