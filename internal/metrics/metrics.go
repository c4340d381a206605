// Package metrics provides Prometheus metrics for the slidekit servers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics, labelled by cache class rather than path to keep
	// cardinality bounded.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekit_http_requests_total",
			Help: "Total number of static file requests",
		},
		[]string{"method", "class", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slidekit_http_request_duration_seconds",
			Help:    "Static file request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"class"},
	)

	// Live-reload metrics
	reloadBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekit_livereload_broadcasts_total",
			Help: "Total reload notifications sent to browsers",
		},
	)

	reloadClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slidekit_livereload_clients_active",
			Help: "Number of connected live-reload clients",
		},
	)

	watchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slidekit_watch_events_total",
			Help: "File system events matched by the watcher",
		},
		[]string{"op"},
	)

	// Staging metrics
	stagedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekit_staged_files_total",
			Help: "Total files copied into the dist directory",
		},
	)

	stagedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slidekit_staged_bytes_total",
			Help: "Total bytes copied into the dist directory",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, class string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, class, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(class).Observe(duration.Seconds())
}

// RecordReload records one reload broadcast.
func RecordReload() {
	reloadBroadcastsTotal.Inc()
}

// SetReloadClients sets the number of connected live-reload clients.
func SetReloadClients(n int) {
	reloadClientsActive.Set(float64(n))
}

// RecordWatchEvent records a matched file system event.
func RecordWatchEvent(op string) {
	watchEventsTotal.WithLabelValues(op).Inc()
}

// RecordStage records the output of a staging pass.
func RecordStage(files int, bytes int64) {
	stagedFilesTotal.Add(float64(files))
	stagedBytesTotal.Add(float64(bytes))
}
