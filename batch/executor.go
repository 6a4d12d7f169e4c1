package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/throttlegate/throttlegate"
	"github.com/throttlegate/throttlegate/adaptive"
	"github.com/throttlegate/throttlegate/ratelimiter"
)

// Result is one item's outcome. Err is nil on success. Index mirrors the
// item's position in the input slice, so results can be re-associated with
// their inputs even if a caller flattens them.
type Result[R any] struct {
	Value R
	Err   error
	Index int
}

// Func is the per-item callable an Executor applies to each batch item.
type Func[T any, R any] func(ctx context.Context, item T) (R, error)

// Executor runs batches of items concurrently, each one passing through a
// shared ratelimiter.RateLimiter, with an optional adaptive.Controller
// observing per-item outcomes. The zero value is not usable; construct with
// NewExecutor or NewAdaptiveExecutor.
type Executor[T any, R any] struct {
	limiter    *ratelimiter.RateLimiter
	retry      RetryConfig
	classifier throttlegate.Classifier
	adaptive   *adaptive.Controller
}

// NewExecutor builds a plain (non-adaptive) Executor from cfg.
func NewExecutor[T any, R any](cfg Config) (*Executor[T, R], error) {
	limiter, err := ratelimiter.New(cfg.limiterConfig())
	if err != nil {
		return nil, err
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = throttlegate.DefaultClassifier
	}
	return &Executor[T, R]{limiter: limiter, retry: cfg.Retry, classifier: classifier}, nil
}

// NewAdaptiveExecutor builds an Executor whose concurrency cap is resized by
// an internal adaptive.Controller in response to per-item outcomes.
func NewAdaptiveExecutor[T any, R any](cfg AdaptiveConfig) (*Executor[T, R], error) {
	limiterCfg := cfg.limiterConfig()
	limiterCfg.MaxConcurrent = cfg.Adaptive.Initial
	limiter, err := ratelimiter.New(limiterCfg)
	if err != nil {
		return nil, err
	}
	controller, err := adaptive.New(cfg.Adaptive, limiter)
	if err != nil {
		return nil, err
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = throttlegate.DefaultClassifier
	}
	return &Executor[T, R]{limiter: limiter, retry: cfg.Retry, classifier: classifier, adaptive: controller}, nil
}

// Limiter returns the executor's underlying rate limiter, for
// introspection (e.g. CurrentWindowCount) or sharing with other
// components.
func (e *Executor[T, R]) Limiter() *ratelimiter.RateLimiter {
	return e.limiter
}

// AdaptiveStats returns the adaptive controller's stats snapshot. It
// panics if the executor was built with NewExecutor rather than
// NewAdaptiveExecutor; callers that don't know which they have should keep
// track of it themselves.
func (e *Executor[T, R]) AdaptiveStats() adaptive.Stats {
	return e.adaptive.StatsSnapshot()
}

// ResetAdaptiveState resets the executor's adaptive controller, if any, to
// its initial concurrency cap.
func (e *Executor[T, R]) ResetAdaptiveState() {
	if e.adaptive != nil {
		e.adaptive.Reset()
	}
}

// Run executes fn over every item in items concurrently, each gated by the
// executor's limiter, and returns results in input order. A single item's
// failure (including exhausting retries) is recorded in its Result and does
// not cancel siblings; only the caller cancelling ctx propagates to every
// in-flight item. Run's own return error is non-nil only when ctx was
// cancelled; it never wraps per-item errors into its own return value —
// those stay in each Result.Err. Run never returns while permits are still
// held — every goroutine releases its permit before Run's internal wait
// group completes.
func (e *Executor[T, R]) Run(ctx context.Context, items []T, fn Func[T, R]) ([]Result[R], error) {
	if len(items) == 0 {
		return []Result[R]{}, nil
	}

	results := make([]Result[R], len(items))
	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			value, err := e.runItem(ctx, item, fn)
			results[i] = Result[R]{Value: value, Err: err, Index: i}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// runItem acquires the executor's limiter for the lifetime of the retry
// loop — via RateLimiter.Do, so the permit releases on every exit path,
// including a panic unwinding out of fn — and runs fn up to
// e.retry.maxAttempts() times.
func (e *Executor[T, R]) runItem(ctx context.Context, item T, fn Func[T, R]) (R, error) {
	var value R
	err := e.limiter.Do(ctx, func(ctx context.Context) error {
		maxAttempts := e.retry.maxAttempts()
		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			v, err := fn(ctx, item)
			if err == nil {
				value = v
				e.notifySuccess()
				return nil
			}
			lastErr = err
			e.notifyRateLimitIfApplicable(err)

			if attempt == maxAttempts {
				break
			}
			if e.retry.Wait > 0 {
				timer := time.NewTimer(e.retry.Wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		return lastErr
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return value, nil
}

func (e *Executor[T, R]) notifySuccess() {
	if e.adaptive != nil {
		e.adaptive.OnSuccess()
	}
}

func (e *Executor[T, R]) notifyRateLimitIfApplicable(err error) {
	if e.adaptive == nil {
		return
	}
	signal, isSignal := throttlegate.AsRateLimitSignal(err)
	if isSignal || e.classifier(err) {
		e.adaptive.OnRateLimit(signal)
	}
}
