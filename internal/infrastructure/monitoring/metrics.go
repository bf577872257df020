package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each Metrics carries its own
// registry so independent servers (and tests) never double-register.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Catalog metrics
	ResolutionsTotal *prometheus.CounterVec
	LinksResolved    prometheus.Counter

	// Transfer metrics
	DownloadsTotal *prometheus.CounterVec
	DownloadBytes  prometheus.Counter
	FilesSkipped   prometheus.Counter

	// Install metrics
	InstallsTotal *prometheus.CounterVec

	// Run metrics
	RunsActive prometheus.Gauge
	RunsTotal  *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON status endpoint.
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	RunsStarted     int64   `json:"runs_started"`
	FilesDownloaded int64   `json:"files_downloaded"`
	BytesDownloaded int64   `json:"bytes_downloaded"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storeappx_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storeappx_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Catalog metrics
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storeappx_resolutions_total",
				Help: "Total number of catalog lookups",
			},
			[]string{"status"},
		),
		LinksResolved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "storeappx_links_resolved_total",
				Help: "Total number of package links returned by lookups",
			},
		),

		// Transfer metrics
		DownloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storeappx_downloads_total",
				Help: "Total number of file downloads",
			},
			[]string{"status"},
		),
		DownloadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "storeappx_download_bytes_total",
				Help: "Total bytes written by downloads",
			},
		),
		FilesSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "storeappx_files_skipped_total",
				Help: "Total number of files skipped because they already existed",
			},
		),

		// Install metrics
		InstallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storeappx_installs_total",
				Help: "Total number of package install attempts",
			},
			[]string{"status"},
		),

		// Run metrics
		RunsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storeappx_runs_active",
				Help: "Number of batch runs currently executing",
			},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storeappx_runs_total",
				Help: "Total number of batch runs by terminal state",
			},
			[]string{"state"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storeappx_ws_connections",
				Help: "Number of active WebSocket progress streams",
			},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storeappx_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// Handler exposes this collector's registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordResolution records a catalog lookup and how many links it produced
func (m *Metrics) RecordResolution(ok bool, links int) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ResolutionsTotal.WithLabelValues(status).Inc()
	if links > 0 {
		m.LinksResolved.Add(float64(links))
	}
}

// RecordDownload records one finished file transfer
func (m *Metrics) RecordDownload(ok bool, bytes int64) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.DownloadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		m.DownloadBytes.Add(float64(bytes))
	}

	m.mu.Lock()
	if ok {
		m.snapshot.FilesDownloaded++
	}
	m.snapshot.BytesDownloaded += bytes
	m.mu.Unlock()
}

// RecordSkips records files skipped because they already existed
func (m *Metrics) RecordSkips(n int) {
	if n > 0 {
		m.FilesSkipped.Add(float64(n))
	}
}

// RecordInstalls records a batch of package install attempts
func (m *Metrics) RecordInstalls(installed, failed int) {
	if installed > 0 {
		m.InstallsTotal.WithLabelValues("ok").Add(float64(installed))
	}
	if failed > 0 {
		m.InstallsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// RunStarted marks a batch run as active
func (m *Metrics) RunStarted() {
	m.RunsActive.Inc()
	m.mu.Lock()
	m.snapshot.RunsStarted++
	m.mu.Unlock()
}

// RunFinished marks a batch run terminal with its end state
func (m *Metrics) RunFinished(state string) {
	m.RunsActive.Dec()
	m.RunsTotal.WithLabelValues(state).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
