// Package ratelimiter implements the dual-mode rate limiter: a concurrency
// semaphore gate followed, when configured, by a sliding-window throughput
// gate. See RateLimiter for the runtime type and Config for construction.
package ratelimiter

import (
	"time"

	"github.com/throttlegate/throttlegate"
)

// DefaultWindow is the window duration used when a Config doesn't set one
// explicitly, matching the 60-second default most rate-limited APIs quote
// limits in terms of.
const DefaultWindow = 60 * time.Second

// Config describes a RateLimiter's capacity. MaxPerWindow of zero means the
// sliding-window gate is disabled entirely (concurrency-only limiting).
type Config struct {
	MaxConcurrent int
	MaxPerWindow  int
	Window        time.Duration
	Description   string
}

// Validate checks the configuration's constraints and returns a
// *throttlegate.ConfigurationError describing the first violation found, or
// nil if the configuration is usable.
func (c Config) Validate() error {
	if c.MaxConcurrent < 1 {
		return throttlegate.NewConfigurationError("MaxConcurrent", "must be >= 1")
	}
	if c.MaxPerWindow < 0 {
		return throttlegate.NewConfigurationError("MaxPerWindow", "must be >= 0 (0 disables the window gate)")
	}
	if c.MaxPerWindow > 0 && c.Window < 0 {
		return throttlegate.NewConfigurationError("Window", "must be >= 0 (0 uses DefaultWindow)")
	}
	return nil
}

// windowOrDefault returns c.Window, or DefaultWindow when c.Window is zero.
func (c Config) windowOrDefault() time.Duration {
	if c.Window <= 0 {
		return DefaultWindow
	}
	return c.Window
}
