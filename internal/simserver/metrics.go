package simserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghg_http_requests_total",
			Help: "Total number of HTTP requests handled by the simulator",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghg_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	sessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghg_sessions_started_total",
			Help: "Total number of playthroughs started or restarted",
		},
	)

	roundsSimulated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghg_rounds_simulated_total",
			Help: "Total number of rounds simulated",
		},
	)

	certificatesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghg_certificates_issued_total",
			Help: "Final rounds simulated, by certificate tier",
		},
		[]string{"tier"},
	)
)

// unmatchedRoute labels requests that matched no route, keeping series bounded.
const unmatchedRoute = "unmatched"

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request counts and latency by route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
