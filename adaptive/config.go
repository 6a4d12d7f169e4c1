// Package adaptive implements the AIMD concurrency controller: it observes
// success/rate-limit feedback from a batch executor and resizes an
// underlying Resizer (typically a ratelimiter.RateLimiter) between
// configured bounds.
package adaptive

import (
	"log/slog"

	"github.com/throttlegate/throttlegate"
)

// Config describes an adaptive controller's bounds and backoff/recovery
// rates. All of Initial, Min, and Max must satisfy Min <= Initial <= Max.
type Config struct {
	Initial int
	Min     int
	Max     int

	// BackoffFactor multiplies the current cap on each rate-limit event.
	// Must be in (0, 1). Defaults to 0.5.
	BackoffFactor float64
	// RecoveryFactor multiplies the current cap after RecoveryThreshold
	// consecutive successes. Must be > 1. Defaults to 1.2.
	RecoveryFactor float64
	// RecoveryThreshold is the number of consecutive successes required to
	// trigger a recovery step. Defaults to 10.
	RecoveryThreshold int

	// Logger, if set, receives debug-level events when the cap changes.
	// Mirrors the teacher's own WithLogger convention for adaptive limiters.
	Logger *slog.Logger
}

const (
	defaultBackoffFactor     = 0.5
	defaultRecoveryFactor    = 1.2
	defaultRecoveryThreshold = 10
)

// withDefaults fills in zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.BackoffFactor == 0 {
		c.BackoffFactor = defaultBackoffFactor
	}
	if c.RecoveryFactor == 0 {
		c.RecoveryFactor = defaultRecoveryFactor
	}
	if c.RecoveryThreshold == 0 {
		c.RecoveryThreshold = defaultRecoveryThreshold
	}
	return c
}

// Validate checks Config's invariants.
func (c Config) Validate() error {
	if c.Min < 1 {
		return throttlegate.NewConfigurationError("Min", "must be >= 1")
	}
	if c.Max < c.Min {
		return throttlegate.NewConfigurationError("Max", "must be >= Min")
	}
	if c.Initial < c.Min || c.Initial > c.Max {
		return throttlegate.NewConfigurationError("Initial", "must satisfy Min <= Initial <= Max")
	}
	bf := c.withDefaults().BackoffFactor
	if bf <= 0 || bf >= 1 {
		return throttlegate.NewConfigurationError("BackoffFactor", "must be in (0, 1)")
	}
	rf := c.withDefaults().RecoveryFactor
	if rf <= 1 {
		return throttlegate.NewConfigurationError("RecoveryFactor", "must be > 1")
	}
	if c.withDefaults().RecoveryThreshold < 1 {
		return throttlegate.NewConfigurationError("RecoveryThreshold", "must be >= 1")
	}
	return nil
}
