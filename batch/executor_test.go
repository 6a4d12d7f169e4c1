package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlegate/throttlegate"
	"github.com/throttlegate/throttlegate/adaptive"
)

func TestRun_EmptyBatch(t *testing.T) {
	ex, err := NewExecutor[int, int](Config{MaxConcurrent: 5})
	require.NoError(t, err)

	results, err := ex.Run(context.Background(), nil, func(context.Context, int) (int, error) {
		t.Fatal("fn should not be called for an empty batch")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// Result order must match input order regardless of completion order.
func TestRun_PreservesOrder(t *testing.T) {
	ex, err := NewExecutor[int, int](Config{MaxConcurrent: 10})
	require.NoError(t, err)

	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	results, err := ex.Run(context.Background(), items, func(_ context.Context, item int) (int, error) {
		// Reverse-order sleeps so earlier items finish last.
		time.Sleep(time.Duration(10-item) * time.Millisecond)
		return item * 2, nil
	})
	require.NoError(t, err)
	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i*2, r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestRun_SiblingFailureDoesNotCancelOthers(t *testing.T) {
	ex, err := NewExecutor[int, string](Config{MaxConcurrent: 5})
	require.NoError(t, err)

	items := []int{0, 1, 2}
	results, err := ex.Run(context.Background(), items, func(_ context.Context, item int) (string, error) {
		if item == 1 {
			return "", errors.New("boom")
		}
		return fmt.Sprintf("ok-%d", item), nil
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "ok-0", results[0].Value)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "ok-2", results[2].Value)
}

func TestRun_RetryHeldAcrossLimiterScope(t *testing.T) {
	ex, err := NewExecutor[int, int](Config{
		MaxConcurrent: 1,
		Retry:         RetryConfig{MaxAttempts: 3, Wait: time.Millisecond},
	})
	require.NoError(t, err)

	var attempts int32
	var maxObservedConcurrent int32
	var current int32
	var probeAcquired int32

	results, err := ex.Run(context.Background(), []int{0}, func(ctx context.Context, _ int) (int, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			observed := atomic.LoadInt32(&maxObservedConcurrent)
			if n <= observed || atomic.CompareAndSwapInt32(&maxObservedConcurrent, observed, n) {
				break
			}
		}
		defer atomic.AddInt32(&current, -1)

		// With MaxConcurrent 1, the item's permit is still held on every
		// attempt, so a second acquisition cannot get through.
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
		defer cancel()
		if p, err := ex.Limiter().Acquire(probeCtx); err == nil {
			p.Release()
			atomic.AddInt32(&probeAcquired, 1)
		}

		attempt := atomic.AddInt32(&attempts, 1)
		if attempt < 3 {
			return 0, errors.New("429 too many requests")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, int32(0), atomic.LoadInt32(&probeAcquired))
	assert.Equal(t, 42, results[0].Value)
	assert.NoError(t, results[0].Err)
}

func TestRun_FinalErrorPropagatedAfterRetriesExhausted(t *testing.T) {
	ex, err := NewExecutor[int, int](Config{
		MaxConcurrent: 2,
		Retry:         RetryConfig{MaxAttempts: 2},
	})
	require.NoError(t, err)

	results, err := ex.Run(context.Background(), []int{0}, func(context.Context, int) (int, error) {
		return 0, errors.New("persistent failure")
	})
	require.NoError(t, err)
	assert.EqualError(t, results[0].Err, "persistent failure")
}

func TestRun_CancellationPropagatesToAllInFlight(t *testing.T) {
	ex, err := NewExecutor[int, int](Config{MaxConcurrent: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ex.Run(ctx, []int{0, 1, 2}, func(ctx context.Context, item int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRun_AdaptiveControllerObservesOutcomesAcrossRetries(t *testing.T) {
	ex, err := NewAdaptiveExecutor[int, int](AdaptiveConfig{
		Config: Config{Retry: RetryConfig{MaxAttempts: 2}},
		Adaptive: adaptive.Config{
			Initial: 10, Min: 2, Max: 50,
			BackoffFactor: 0.5, RecoveryThreshold: 5, RecoveryFactor: 2,
		},
	})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []int{0}, func(_ context.Context, _ int) (int, error) {
		return 0, throttlegate.NewRateLimitSignal("slow down").WithSource("openai")
	})
	require.NoError(t, err)

	// Both rate-limited attempts are observed: 10 -> 5 -> 2.
	stats := ex.AdaptiveStats()
	assert.Equal(t, 2, stats.TotalRateLimits)
	assert.Equal(t, 2, stats.Current)
}

func TestRun_NonRateLimitErrorsDoNotAffectAdaptiveState(t *testing.T) {
	ex, err := NewAdaptiveExecutor[int, int](AdaptiveConfig{
		Adaptive: adaptive.Config{
			Initial: 10, Min: 2, Max: 50,
			BackoffFactor: 0.5, RecoveryThreshold: 5, RecoveryFactor: 2,
		},
	})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []int{0}, func(context.Context, int) (int, error) {
		return 0, errors.New("invalid api key")
	})
	require.NoError(t, err)

	stats := ex.AdaptiveStats()
	assert.Equal(t, 0, stats.TotalRateLimits)
	assert.Equal(t, 10, stats.Current)
}
