package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the resolver daemon.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Probe metrics
	ProbeRuns *prometheus.CounterVec
	ProbeHits *prometheus.CounterVec

	// Cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheRefreshes prometheus.Counter
	CacheEntries   prometheus.Gauge

	// Resolution metrics
	ResolveDuration *prometheus.HistogramVec
	ResolveTotal    *prometheus.CounterVec

	// Lifecycle metrics
	Launches     *prometheus.CounterVec
	Terminations *prometheus.CounterVec

	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ProbeRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskd_probe_runs_total",
				Help: "Total number of probe executions",
			},
			[]string{"probe", "phase"},
		),
		ProbeHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskd_probe_hits_total",
				Help: "Total number of probe executions that produced candidates",
			},
			[]string{"probe", "phase"},
		),

		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "deskd_cache_hits_total",
				Help: "Total number of resolution cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "deskd_cache_misses_total",
				Help: "Total number of resolution cache misses",
			},
		),
		CacheRefreshes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "deskd_cache_refreshes_total",
				Help: "Total number of full cache rebuilds",
			},
		),
		CacheEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskd_cache_entries",
				Help: "Number of entries in the resolution cache",
			},
		),

		ResolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskd_resolve_duration_seconds",
				Help:    "Name resolution duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		ResolveTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskd_resolve_total",
				Help: "Total number of resolution calls",
			},
			[]string{"outcome"},
		),

		Launches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskd_launches_total",
				Help: "Total number of application launches",
			},
			[]string{"mode", "status"},
		),
		Terminations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskd_terminations_total",
				Help: "Total number of application terminations",
			},
			[]string{"mode"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskd_uptime_seconds",
				Help: "Daemon uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProbe records one probe execution.
func (m *Metrics) RecordProbe(probe, phase string, hit bool) {
	m.ProbeRuns.WithLabelValues(probe, phase).Inc()
	if hit {
		m.ProbeHits.WithLabelValues(probe, phase).Inc()
	}
}

// RecordResolve records the outcome of one resolution call.
func (m *Metrics) RecordResolve(outcome string, duration time.Duration) {
	m.ResolveTotal.WithLabelValues(outcome).Inc()
	m.ResolveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordLaunch records a launch attempt.
func (m *Metrics) RecordLaunch(mode, status string) {
	m.Launches.WithLabelValues(mode, status).Inc()
}

// RecordTermination records a termination.
func (m *Metrics) RecordTermination(mode string) {
	m.Terminations.WithLabelValues(mode).Inc()
}
