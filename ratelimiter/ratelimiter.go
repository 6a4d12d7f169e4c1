package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/throttlegate/throttlegate/internal/slidingwindow"
)

// RateLimiter is a dual-mode gate: a concurrency semaphore bounding the
// number of simultaneous in-flight operations, followed — when MaxPerWindow
// is configured — by a sliding-window gate bounding the number of
// acquisitions completed within any trailing Window interval. It is safe
// for concurrent use.
type RateLimiter struct {
	mu     sync.Mutex
	gen    *generation
	config Config
	window *slidingwindow.Window // nil when MaxPerWindow == 0
}

// New builds a RateLimiter from cfg, or returns cfg.Validate()'s error.
func New(cfg Config) (*RateLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rl := &RateLimiter{
		gen:    newGeneration(cfg.MaxConcurrent),
		config: cfg,
	}
	if cfg.MaxPerWindow > 0 {
		rl.window = slidingwindow.New(cfg.MaxPerWindow, cfg.windowOrDefault())
	}
	return rl, nil
}

// MustNew is like New but panics on an invalid configuration. Intended for
// package-level var initialization with a known-good literal Config.
func MustNew(cfg Config) *RateLimiter {
	rl, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return rl
}

// Acquire blocks until the caller may proceed, in two stages: first the
// concurrency semaphore, then — if configured — the sliding window. If ctx
// is cancelled while waiting on the semaphore, no timestamp is recorded and
// the semaphore is left untouched for other waiters. If ctx is cancelled
// while waiting on the window, the semaphore slot already acquired is
// released before returning the error, so a cancelled caller never leaves a
// stuck permit.
func (rl *RateLimiter) Acquire(ctx context.Context) (*Permit, error) {
	rl.mu.Lock()
	gen := rl.gen
	window := rl.window
	rl.mu.Unlock()

	if err := gen.acquire(ctx); err != nil {
		return nil, err
	}

	if window == nil {
		return &Permit{gen: gen}, nil
	}

	if err := window.Wait(ctx); err != nil {
		gen.release()
		return nil, err
	}
	return &Permit{gen: gen}, nil
}

// Do runs fn while holding a permit, releasing it on every exit path
// including a panic propagating out of fn.
func (rl *RateLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	permit, err := rl.Acquire(ctx)
	if err != nil {
		return err
	}
	defer permit.Release()
	return fn(ctx)
}

// Resize replaces the concurrency semaphore with a fresh one of the given
// capacity. Permits already issued from the prior generation remain valid
// and release to that prior generation; only new acquisitions observe the
// new capacity. Used by adaptive.Controller; most callers never need it.
func (rl *RateLimiter) Resize(maxConcurrent int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.gen = newGeneration(maxConcurrent)
	rl.config.MaxConcurrent = maxConcurrent
}

// CurrentWindowCount returns the number of un-expired timestamps in the
// sliding window, or 0 when no window is configured.
func (rl *RateLimiter) CurrentWindowCount() int {
	rl.mu.Lock()
	window := rl.window
	rl.mu.Unlock()
	if window == nil {
		return 0
	}
	return window.Count()
}

// Reset clears the sliding-window history. It does not touch the
// concurrency semaphore or revoke permits held by in-flight callers.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	window := rl.window
	rl.mu.Unlock()
	if window != nil {
		window.Reset()
	}
}

// Config returns the limiter's current configuration. MaxConcurrent
// reflects the most recent Resize, if any.
func (rl *RateLimiter) Config() Config {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.config
}

// MaxConcurrent returns the current concurrency cap.
func (rl *RateLimiter) MaxConcurrent() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.config.MaxConcurrent
}

// Stats is a point-in-time snapshot of a RateLimiter's configuration and
// usage, suitable for registry introspection or telemetry export.
type Stats struct {
	MaxConcurrent      int
	MaxPerWindow       int
	Window             time.Duration
	CurrentWindowCount int
}

// StatsSnapshot returns a Stats snapshot of the limiter's current state.
func (rl *RateLimiter) StatsSnapshot() Stats {
	cfg := rl.Config()
	return Stats{
		MaxConcurrent:      cfg.MaxConcurrent,
		MaxPerWindow:       cfg.MaxPerWindow,
		Window:             cfg.windowOrDefault(),
		CurrentWindowCount: rl.CurrentWindowCount(),
	}
}
