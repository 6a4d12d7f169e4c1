// Package batch implements the throttled parallel batch executor (C3): it
// runs a collection of items concurrently, each one routed through a
// ratelimiter.RateLimiter, with retries held inside the limiter scope and
// results returned in input order regardless of completion order. An
// optional adaptive.Controller lets the concurrency cap react to observed
// rate-limit feedback.
package batch

import (
	"time"

	"github.com/throttlegate/throttlegate"
	"github.com/throttlegate/throttlegate/adaptive"
	"github.com/throttlegate/throttlegate/ratelimiter"
)

// RetryConfig is the executor's retry policy: a fixed attempt count and a
// fixed inter-attempt delay. Retries happen inside the limiter scope, so a
// single permit is held across all of an item's attempts — the rationale
// (per design note) is that releasing between attempts would re-queue the
// item behind newer arrivals and could amplify load during an incident.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per item, including the
	// first. Values < 1 are treated as 1 (no retries).
	MaxAttempts int
	// Wait is the fixed delay between attempts.
	Wait time.Duration
}

func (r RetryConfig) maxAttempts() int {
	if r.MaxAttempts < 1 {
		return 1
	}
	return r.MaxAttempts
}

// Config configures a plain (non-adaptive) Executor.
type Config struct {
	MaxConcurrent int
	MaxPerWindow  int
	Window        time.Duration
	Retry         RetryConfig
	// Classifier decides whether an item's error indicates throttling.
	// Defaults to throttlegate.DefaultClassifier. It is consulted only by an
	// adaptive Executor; a plain Executor stores it but never calls it.
	Classifier throttlegate.Classifier
}

func (c Config) limiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		MaxConcurrent: c.MaxConcurrent,
		MaxPerWindow:  c.MaxPerWindow,
		Window:        c.Window,
	}
}

// AdaptiveConfig configures an adaptive Executor: a plain Config plus the
// AIMD bounds and rates from adaptive.Config.
type AdaptiveConfig struct {
	Config
	Adaptive adaptive.Config
}
