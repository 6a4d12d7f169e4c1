package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlegate/throttlegate/adaptive"
	"github.com/throttlegate/throttlegate/ratelimiter"
)

type fakeResizer struct{}

func (fakeResizer) Resize(int) {}

func TestCollector_ExportsLimiterAndControllerState(t *testing.T) {
	rl, err := ratelimiter.New(ratelimiter.Config{MaxConcurrent: 4, MaxPerWindow: 2})
	require.NoError(t, err)
	permit, err := rl.Acquire(context.Background())
	require.NoError(t, err)
	defer permit.Release()

	ctrl, err := adaptive.New(adaptive.Config{Initial: 10, Min: 2, Max: 50}, fakeResizer{})
	require.NoError(t, err)
	ctrl.OnRateLimit(nil)

	c := NewCollector()
	c.AddLimiter("openai", rl)
	c.AddController("openai", ctrl)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.Metric {
			values[mf.GetName()] = metricValue(m)
		}
	}

	assert.Equal(t, 1.0, values["throttlegate_limiter_window_count"])
	assert.Equal(t, 4.0, values["throttlegate_limiter_max_concurrent"])
	assert.Equal(t, 1.0, values["throttlegate_adaptive_rate_limits_total"])
}

func metricValue(m *dto.Metric) float64 {
	if m.Gauge != nil {
		return m.Gauge.GetValue()
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return 0
}
