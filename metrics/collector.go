// Package metrics exports throttlegate's runtime state as Prometheus
// metrics. It is entirely optional: nothing in the core requires a
// collector to be registered, and a program that never imports this
// package never pulls in prometheus/client_golang.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/throttlegate/throttlegate/adaptive"
	"github.com/throttlegate/throttlegate/ratelimiter"
)

// Collector implements prometheus.Collector, exporting gauges and counters
// for every limiter and adaptive controller registered with it. Register it
// with a prometheus.Registry the way any other collector is registered.
type Collector struct {
	mu          sync.Mutex
	limiters    map[string]*ratelimiter.RateLimiter
	controllers map[string]*adaptive.Controller

	currentWindowCount *prometheus.Desc
	maxConcurrent      *prometheus.Desc
	adaptiveCurrent    *prometheus.Desc
	adaptiveRateLimits *prometheus.Desc
	adaptiveSuccesses  *prometheus.Desc
}

// NewCollector builds an empty Collector. Use AddLimiter/AddController to
// register instances to export.
func NewCollector() *Collector {
	return &Collector{
		limiters:    make(map[string]*ratelimiter.RateLimiter),
		controllers: make(map[string]*adaptive.Controller),
		currentWindowCount: prometheus.NewDesc(
			"throttlegate_limiter_window_count",
			"Number of un-expired acquisitions in the sliding window.",
			[]string{"name"}, nil,
		),
		maxConcurrent: prometheus.NewDesc(
			"throttlegate_limiter_max_concurrent",
			"Current concurrency cap.",
			[]string{"name"}, nil,
		),
		adaptiveCurrent: prometheus.NewDesc(
			"throttlegate_adaptive_current",
			"Current AIMD-controlled concurrency cap.",
			[]string{"name"}, nil,
		),
		adaptiveRateLimits: prometheus.NewDesc(
			"throttlegate_adaptive_rate_limits_total",
			"Cumulative count of rate-limit events observed by the adaptive controller.",
			[]string{"name"}, nil,
		),
		adaptiveSuccesses: prometheus.NewDesc(
			"throttlegate_adaptive_successes_total",
			"Cumulative count of successes observed by the adaptive controller.",
			[]string{"name"}, nil,
		),
	}
}

// AddLimiter registers rl for export under name.
func (c *Collector) AddLimiter(name string, rl *ratelimiter.RateLimiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[name] = rl
}

// AddController registers ctrl for export under name.
func (c *Collector) AddController(name string, ctrl *adaptive.Controller) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controllers[name] = ctrl
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.currentWindowCount
	ch <- c.maxConcurrent
	ch <- c.adaptiveCurrent
	ch <- c.adaptiveRateLimits
	ch <- c.adaptiveSuccesses
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	limiters := make(map[string]*ratelimiter.RateLimiter, len(c.limiters))
	for k, v := range c.limiters {
		limiters[k] = v
	}
	controllers := make(map[string]*adaptive.Controller, len(c.controllers))
	for k, v := range c.controllers {
		controllers[k] = v
	}
	c.mu.Unlock()

	for name, rl := range limiters {
		stats := rl.StatsSnapshot()
		ch <- prometheus.MustNewConstMetric(c.currentWindowCount, prometheus.GaugeValue, float64(stats.CurrentWindowCount), name)
		ch <- prometheus.MustNewConstMetric(c.maxConcurrent, prometheus.GaugeValue, float64(stats.MaxConcurrent), name)
	}
	for name, ctrl := range controllers {
		stats := ctrl.StatsSnapshot()
		ch <- prometheus.MustNewConstMetric(c.adaptiveCurrent, prometheus.GaugeValue, float64(stats.Current), name)
		ch <- prometheus.MustNewConstMetric(c.adaptiveRateLimits, prometheus.CounterValue, float64(stats.TotalRateLimits), name)
		ch <- prometheus.MustNewConstMetric(c.adaptiveSuccesses, prometheus.CounterValue, float64(stats.TotalSuccesses), name)
	}
}
