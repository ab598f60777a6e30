// Package metrics exposes Prometheus instrumentation for graph and query activity.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryRows     *prometheus.HistogramVec
	graphTriples  *prometheus.GaugeVec
	graphState    prometheus.Gauge
	alertsActive  prometheus.Gauge
	alertChecks   *prometheus.CounterVec

	mu      sync.Mutex
	graphFn GraphStatsFunc
}

// GraphStatsFunc reports the current session state and triple counts.
type GraphStatsFunc func() (state, loaded, inferred int)

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		queryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ontomaint_queries_total",
				Help: "Total number of executed queries by source and outcome",
			},
			[]string{"source", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ontomaint_query_duration_seconds",
				Help:    "Query execution time in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		queryRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ontomaint_query_rows",
				Help:    "Number of rows returned per query",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"source"},
		),
		graphTriples: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ontomaint_graph_triples",
				Help: "Triples in the graph by origin",
			},
			[]string{"origin"},
		),
		graphState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ontomaint_graph_state",
			Help: "Session state: 0 unloaded, 1 loaded, 2 reasoned",
		}),
		alertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ontomaint_sensor_alerts",
			Help: "Sensor alert rows found by the most recent scheduled check",
		}),
		alertChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ontomaint_alert_checks_total",
				Help: "Scheduled alert checks by outcome",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(
		m.queryTotal, m.queryDuration, m.queryRows,
		m.graphTriples, m.graphState, m.alertsActive, m.alertChecks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format. Graph
// gauges are refreshed from the function passed to WatchGraph on every scrape.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.refreshGraph()
		h.ServeHTTP(w, r)
	})
}

// WatchGraph makes every scrape read the graph gauges from fn.
func (m *Metrics) WatchGraph(fn GraphStatsFunc) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.graphFn = fn
	m.mu.Unlock()
}

func (m *Metrics) refreshGraph() {
	m.mu.Lock()
	fn := m.graphFn
	m.mu.Unlock()
	if fn != nil {
		m.SetGraph(fn())
	}
}

// ObserveQuery records one query execution.
func (m *Metrics) ObserveQuery(source, status string, d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.queryTotal.WithLabelValues(source, status).Inc()
	m.queryDuration.WithLabelValues(source).Observe(d.Seconds())
	m.queryRows.WithLabelValues(source).Observe(float64(rows))
}

// SetGraph records the session state and triple counts.
func (m *Metrics) SetGraph(state, loaded, inferred int) {
	if m == nil {
		return
	}
	m.graphState.Set(float64(state))
	m.graphTriples.WithLabelValues("asserted").Set(float64(loaded))
	m.graphTriples.WithLabelValues("inferred").Set(float64(inferred))
}

// ObserveAlertCheck records the outcome of a scheduled alert check.
func (m *Metrics) ObserveAlertCheck(status string, alerts int) {
	if m == nil {
		return
	}
	m.alertChecks.WithLabelValues(status).Inc()
	if status != "ERROR" {
		m.alertsActive.Set(float64(alerts))
	}
}
