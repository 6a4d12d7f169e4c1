package adaptive

import (
	"math"
	"sync"

	"github.com/throttlegate/throttlegate"
)

// Resizer is the narrow capability a Controller needs from whatever it's
// adapting — satisfied by *ratelimiter.RateLimiter.
type Resizer interface {
	Resize(maxConcurrent int)
}

// Controller implements the AIMD state machine: multiplicative backoff on
// each rate-limit event, multiplicative recovery after a run of consecutive
// successes, clamped to [Min, Max]. All state transitions happen under a
// single mutex, so concurrent OnSuccess/OnRateLimit calls from many
// in-flight batch items are linearizable.
type Controller struct {
	cfg Config

	mu                   sync.Mutex
	current              int
	consecutiveSuccesses int
	totalRateLimits      int
	totalSuccesses       int

	resizer Resizer
}

// New builds a Controller bound to resizer, or returns cfg.Validate()'s
// error. resizer is resized to cfg.Initial before New returns, so it
// starts in sync with the controller's state.
func New(cfg Config, resizer Resizer) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	c := &Controller{cfg: cfg, current: cfg.Initial, resizer: resizer}
	resizer.Resize(cfg.Initial)
	return c, nil
}

// Current returns the controller's current concurrency cap.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// OnRateLimit notifies the controller of a rate-limit event (either an
// explicit *throttlegate.RateLimitSignal or a classifier match). signal may
// be nil when the caller only has a classifier match, not a typed signal.
// The concurrency cap is multiplicatively reduced and, if it changed, the
// bound Resizer is resized to match.
func (c *Controller) OnRateLimit(signal *throttlegate.RateLimitSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current
	next := int(math.Floor(float64(c.current) * c.cfg.BackoffFactor))
	if next < c.cfg.Min {
		next = c.cfg.Min
	}
	c.current = next
	c.consecutiveSuccesses = 0
	c.totalRateLimits++

	if next != prev {
		c.resizer.Resize(next)
		c.logResize("rate_limit", prev, next, signal)
	}
}

// OnSuccess notifies the controller of a successful operation. Every
// RecoveryThreshold consecutive successes (with no intervening rate-limit
// event) triggers one multiplicative recovery step.
func (c *Controller) OnSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveSuccesses++
	c.totalSuccesses++

	if c.consecutiveSuccesses < c.cfg.RecoveryThreshold {
		return
	}

	prev := c.current
	next := int(math.Floor(float64(c.current) * c.cfg.RecoveryFactor))
	if next > c.cfg.Max {
		next = c.cfg.Max
	}
	c.current = next
	c.consecutiveSuccesses = 0

	if next != prev {
		c.resizer.Resize(next)
		c.logResize("recovery", prev, next, nil)
	}
}

func (c *Controller) logResize(reason string, prev, next int, signal *throttlegate.RateLimitSignal) {
	if c.cfg.Logger == nil {
		return
	}
	attrs := []any{"reason", reason, "previous", prev, "current", next}
	if signal != nil {
		attrs = append(attrs, "message", signal.Message)
		if signal.Source != "" {
			attrs = append(attrs, "source", signal.Source)
		}
	}
	c.cfg.Logger.Debug("throttlegate: adaptive concurrency cap changed", attrs...)
}

// Stats is a point-in-time snapshot of a Controller's counters.
type Stats struct {
	Current              int
	Min                  int
	Max                  int
	ConsecutiveSuccesses int
	TotalRateLimits      int
	TotalSuccesses       int
}

// StatsSnapshot returns a Stats snapshot of the controller's current state.
func (c *Controller) StatsSnapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Current:              c.current,
		Min:                  c.cfg.Min,
		Max:                  c.cfg.Max,
		ConsecutiveSuccesses: c.consecutiveSuccesses,
		TotalRateLimits:      c.totalRateLimits,
		TotalSuccesses:       c.totalSuccesses,
	}
}

// Reset returns the controller to its freshly-constructed state: current
// is restored to cfg.Initial (and the bound Resizer resized to match),
// consecutive successes cleared. Cumulative counters (TotalRateLimits,
// TotalSuccesses) are documented as cumulative and are NOT cleared, matching
// the round-trip invariant's carve-out for cumulative fields.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.cfg.Initial
	c.consecutiveSuccesses = 0
	c.resizer.Resize(c.cfg.Initial)
}
