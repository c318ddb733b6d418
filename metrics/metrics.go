// Package metrics provides Prometheus instrumentation for the server.
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
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dirserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	downloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dirserve_downloads_total",
			Help: "Total number of completed file and archive downloads",
		},
	)

	downloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dirserve_download_bytes_total",
			Help: "Total bytes streamed to clients by downloads",
		},
	)

	traversalRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dirserve_traversal_rejections_total",
			Help: "Total number of requests rejected for escaping the served root",
		},
	)
)

// RecordRequest observes one finished HTTP request.
func RecordRequest(method string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// DownloadServed counts one completed download of n bytes.
func DownloadServed(n int64) {
	downloadsTotal.Inc()
	downloadBytes.Add(float64(n))
}

// TraversalRejected counts one blocked path-escape attempt.
func TraversalRejected() {
	traversalRejections.Inc()
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Middleware instruments an http.Handler with request count and
// duration metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		RecordRequest(r.Method, rec.status, time.Since(start))
	})
}
