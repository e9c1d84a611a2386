// Package metrics provides Prometheus instrumentation for the dashboard engine.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuoteFetches counts quote fetches by provenance (live vs synthetic).
	QuoteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_quote_fetches_total",
		Help: "Quote fetches partitioned by source fidelity",
	}, []string{"source"})

	// AggregationRuns counts aggregation calls by kind (indices, sectors).
	AggregationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_aggregation_runs_total",
		Help: "Market aggregation calls",
	}, []string{"kind"})

	// WatchlistOps counts watchlist store operations by op and result.
	WatchlistOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_watchlist_ops_total",
		Help: "Watchlist store operations",
	}, []string{"op", "result"})

	// RefreshCycles counts completed refresh-controller cycles per controller.
	RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_refresh_cycles_total",
		Help: "Completed refresh poll cycles",
	}, []string{"controller"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockpulse_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// ValidationFailures counts validation-gate rejections per schema.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_validation_failures_total",
		Help: "Requests rejected by the validation gate",
	}, []string{"schema"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockpulse_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the API surface is small enough
		// that cardinality stays bounded.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so WebSocket upgrades work
// behind the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}
