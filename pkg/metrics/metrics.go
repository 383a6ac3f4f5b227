// Package metrics provides Prometheus instrumentation for the terminal
// surface plus the loyalty-domain counters the shop dashboards scrape.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks terminal HTTP request latency.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hoffee",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all terminal HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hoffee",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// OrdersCompleted counts checkouts committed by the store.
	OrdersCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hoffee",
		Subsystem: "store",
		Name:      "orders_completed_total",
		Help:      "Total number of completed orders.",
	})

	// PointsAwarded counts loyalty points granted via QR confirmations.
	PointsAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hoffee",
		Subsystem: "loyalty",
		Name:      "points_awarded_total",
		Help:      "Total loyalty points granted via QR scans.",
	})

	// SyncFailures counts backend sync effects that failed after the local
	// transition already committed.
	SyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hoffee",
			Subsystem: "sync",
			Name:      "failures_total",
			Help:      "Backend sync failures by operation.",
		},
		[]string{"operation"},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		RequestDuration,
		RequestTotal,
		OrdersCompleted,
		PointsAwarded,
		SyncFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the /metrics scrape endpoint.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records duration and count for every request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			status := strconv.Itoa(sw.status)
			RequestDuration.WithLabelValues(r.Method, r.URL.Path, status).
				Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		})
	}
}
