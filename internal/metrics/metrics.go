// Package metrics exposes Prometheus metrics for the dialogue server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"branchline/internal/engine"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. A nil
// *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
	SessionSteps    prometheus.Counter
	Diagnostics     *prometheus.CounterVec

	// Graph metrics
	GraphsSaved     prometheus.Counter
	GraphLoadErrors prometheus.Counter
}

// NewCollector creates a collector with its own registry, so several can
// coexist in tests
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of dialogue sessions currently held",
			},
		),
		SessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Total number of dialogue sessions started",
			},
		),
		SessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_ended_total",
				Help:      "Total number of dialogue sessions that reached an end state",
			},
			[]string{"reason"},
		),
		SessionSteps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_steps_total",
				Help:      "Total number of choices followed",
			},
		),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of runtime diagnostics reported by sessions",
			},
			[]string{"severity", "code"},
		),
		GraphsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graphs_saved_total",
				Help:      "Total number of graph saves that changed stored content",
			},
		),
		GraphLoadErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_load_errors_total",
				Help:      "Total number of graph files that failed to import",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.SessionsActive,
		c.SessionsStarted,
		c.SessionsEnded,
		c.SessionSteps,
		c.Diagnostics,
		c.GraphsSaved,
		c.GraphLoadErrors,
	)

	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SessionStarted counts a new session and sets the active gauge
func (c *Collector) SessionStarted(active int) {
	if c == nil {
		return
	}
	c.SessionsStarted.Inc()
	c.SessionsActive.Set(float64(active))
}

// SessionStep counts one followed choice
func (c *Collector) SessionStep() {
	if c == nil {
		return
	}
	c.SessionSteps.Inc()
}

// SessionEnded counts a session reaching an end state
func (c *Collector) SessionEnded(reason engine.EndReason) {
	if c == nil {
		return
	}
	c.SessionsEnded.WithLabelValues(string(reason)).Inc()
}

// SessionsHeld sets the active gauge after sessions are released
func (c *Collector) SessionsHeld(active int) {
	if c == nil {
		return
	}
	c.SessionsActive.Set(float64(active))
}

// GraphSaved counts a save that changed stored content
func (c *Collector) GraphSaved() {
	if c == nil {
		return
	}
	c.GraphsSaved.Inc()
}

// GraphLoadFailed counts a graph file that could not be imported
func (c *Collector) GraphLoadFailed() {
	if c == nil {
		return
	}
	c.GraphLoadErrors.Inc()
}

// Observer returns an engine observer that counts diagnostics
func (c *Collector) Observer() engine.Observer {
	return engine.ObserverFunc(func(d engine.Diagnostic) {
		if c == nil {
			return
		}
		c.Diagnostics.WithLabelValues(string(d.Severity), d.Code).Inc()
	})
}
