// Package server exposes Prometheus metrics for the reduction core: cache
// behavior and reduction outcomes. The metrics endpoint is the only HTTP
// surface of the application.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics registers and updates the reduction counters on a private
// registry, so independent instances (e.g. parallel tests) never collide.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	cacheEvictions    prometheus.Counter
	cacheSize         prometheus.Gauge
	reductions        prometheus.Counter
	reductionFailures prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflred_cache_hits_total",
			Help: "Number of measurement loads served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflred_cache_misses_total",
			Help: "Number of measurement loads that went to the loader.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflred_cache_evictions_total",
			Help: "Number of measurements evicted from the cache.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reflred_cache_size",
			Help: "Current number of cached measurements.",
		}),
		reductions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflred_reductions_total",
			Help: "Number of completed per-measurement reduction calculations.",
		}),
		reductionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflred_reduction_failures_total",
			Help: "Number of failed per-measurement reduction calculations.",
		}),
	}
	registry.MustRegister(
		m.cacheHits, m.cacheMisses, m.cacheEvictions, m.cacheSize,
		m.reductions, m.reductionFailures,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler { return m.handler }

// CacheHit records a load served from the cache.
func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

// CacheMiss records a load that had to invoke the loader.
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

// CacheEvictions records n evicted measurements.
func (m *Metrics) CacheEvictions(n int) {
	m.cacheEvictions.Add(float64(n))
}

// SetCacheSize records the current cache size.
func (m *Metrics) SetCacheSize(n int) { m.cacheSize.Set(float64(n)) }

// ReductionSucceeded records one completed reduction calculation.
func (m *Metrics) ReductionSucceeded() { m.reductions.Inc() }

// ReductionFailed records one failed reduction calculation.
func (m *Metrics) ReductionFailed() { m.reductionFailures.Inc() }
