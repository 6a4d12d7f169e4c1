// Package flowbatch implements the flow-level throttled executor (C5): it
// runs an entire pipeline graph once per input parameter bundle, gated by
// its own ratelimiter.RateLimiter scoping "number of flow instances
// currently executing". It composes with batch.Executor by nesting: a
// Graph whose Run drives a batch.Executor internally multiplies the two
// caps.
package flowbatch

import (
	"time"

	"github.com/throttlegate/throttlegate"
	"github.com/throttlegate/throttlegate/adaptive"
	"github.com/throttlegate/throttlegate/flow"
	"github.com/throttlegate/throttlegate/ratelimiter"
)

// Config configures a plain (non-adaptive) Executor.
type Config struct {
	MaxConcurrentFlows int
	MaxFlowsPerWindow  int
	Window             time.Duration
	// Params holds ambient parameters merged into every bundle; bundle keys
	// win on conflict. May be nil.
	Params     flow.Params
	Classifier throttlegate.Classifier
}

func (c Config) limiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		MaxConcurrent: c.MaxConcurrentFlows,
		MaxPerWindow:  c.MaxFlowsPerWindow,
		Window:        c.Window,
	}
}

// AdaptiveConfig configures an adaptive Executor: a plain Config plus AIMD
// bounds observed at flow-instance granularity.
type AdaptiveConfig struct {
	Config
	Adaptive adaptive.Config
}
