package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResizer struct {
	sizes []int
}

func (f *fakeResizer) Resize(n int) {
	f.sizes = append(f.sizes, n)
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{Initial: 10, Min: 20, Max: 50}, &fakeResizer{})
	assert.Error(t, err)

	_, err = New(Config{Initial: 100, Min: 2, Max: 50}, &fakeResizer{})
	assert.Error(t, err)

	_, err = New(Config{Initial: 10, Min: 2, Max: 50, BackoffFactor: 1.5}, &fakeResizer{})
	assert.Error(t, err)
}

// With initial=10, min=2, max=50, backoff=0.5, threshold=5, recovery=2.0,
// three consecutive rate-limit events must drive current to 2, and five
// subsequent successes must recover it to 4.
func TestController_AIMDBackoffAndRecovery(t *testing.T) {
	resizer := &fakeResizer{}
	c, err := New(Config{
		Initial: 10, Min: 2, Max: 50,
		BackoffFactor: 0.5, RecoveryThreshold: 5, RecoveryFactor: 2.0,
	}, resizer)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c.OnRateLimit(nil)
	}
	assert.Equal(t, 2, c.Current())

	for i := 0; i < 5; i++ {
		c.OnSuccess()
	}
	assert.Equal(t, 4, c.Current())
}

// At every observed state, min <= current <= max.
func TestController_NeverExceedsBounds(t *testing.T) {
	resizer := &fakeResizer{}
	c, err := New(Config{Initial: 10, Min: 2, Max: 12, BackoffFactor: 0.5, RecoveryThreshold: 1, RecoveryFactor: 3}, resizer)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		c.OnRateLimit(nil)
		assert.GreaterOrEqual(t, c.Current(), 2)
		assert.LessOrEqual(t, c.Current(), 12)
	}
	for i := 0; i < 20; i++ {
		c.OnSuccess()
		assert.GreaterOrEqual(t, c.Current(), 2)
		assert.LessOrEqual(t, c.Current(), 12)
	}
}

func TestController_ResetRestoresInitial(t *testing.T) {
	resizer := &fakeResizer{}
	c, err := New(Config{Initial: 10, Min: 2, Max: 50, BackoffFactor: 0.5, RecoveryThreshold: 5, RecoveryFactor: 2}, resizer)
	require.NoError(t, err)

	c.OnRateLimit(nil)
	c.OnRateLimit(nil)
	assert.NotEqual(t, 10, c.Current())

	c.Reset()
	assert.Equal(t, 10, c.Current())
	assert.Equal(t, 0, c.StatsSnapshot().ConsecutiveSuccesses)
	// Cumulative counters survive reset.
	assert.Equal(t, 2, c.StatsSnapshot().TotalRateLimits)
}

func TestController_RecoveryWaitsForThreshold(t *testing.T) {
	resizer := &fakeResizer{}
	c, err := New(Config{Initial: 10, Min: 2, Max: 50, BackoffFactor: 0.5, RecoveryThreshold: 3, RecoveryFactor: 2}, resizer)
	require.NoError(t, err)

	c.OnRateLimit(nil)
	c.OnSuccess()
	c.OnSuccess()
	// Only 2 consecutive successes accumulated; threshold of 3 not reached.
	assert.Equal(t, 5, c.Current())
}
