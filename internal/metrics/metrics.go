// Package metrics exposes Prometheus metrics for refresh passes, watches and
// store backend calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records service metrics into a Prometheus registry.
type Collector struct {
	passes          *prometheus.CounterVec
	passDuration    prometheus.Histogram
	activeWatches   prometheus.Gauge
	staleResults    prometheus.Counter
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	invalidations   prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridgewatch_refresh_passes_total",
			Help: "Notification refresh passes by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fridgewatch_refresh_pass_duration_seconds",
			Help:    "Duration of notification refresh passes.",
			Buckets: prometheus.DefBuckets,
		}),
		activeWatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fridgewatch_active_watches",
			Help: "Number of open notification watches.",
		}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridgewatch_stale_results_total",
			Help: "Refresh results discarded because a newer result was already applied.",
		}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridgewatch_backend_requests_total",
			Help: "Store backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fridgewatch_backend_request_duration_seconds",
			Help:    "Store backend request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridgewatch_invalidations_total",
			Help: "Inventory-changed signals accepted from clients.",
		}),
	}

	reg.MustRegister(
		c.passes,
		c.passDuration,
		c.activeWatches,
		c.staleResults,
		c.backendRequests,
		c.backendLatency,
		c.invalidations,
	)
	return c
}

// RecordPass records the outcome of one refresh pass.
func (c *Collector) RecordPass(trigger, outcome string, d time.Duration) {
	c.passes.WithLabelValues(trigger, outcome).Inc()
	c.passDuration.Observe(d.Seconds())
}

// RecordStale records a discarded out-of-order result.
func (c *Collector) RecordStale() {
	c.staleResults.Inc()
}

// SetActiveWatches sets the open watch gauge.
func (c *Collector) SetActiveWatches(n int) {
	c.activeWatches.Set(float64(n))
}

// RecordBackendRequest records one store backend call.
func (c *Collector) RecordBackendRequest(endpoint, outcome string, d time.Duration) {
	c.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	c.backendLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordInvalidation records an accepted inventory-changed signal.
func (c *Collector) RecordInvalidation() {
	c.invalidations.Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
