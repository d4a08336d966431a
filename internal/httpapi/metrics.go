package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nllbd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nllbd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"path"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Handled jobs by outcome",
		},
		[]string{"outcome"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nllbd",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job handling duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	runtimeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "runtime",
			Name:      "requests_total",
			Help:      "Requests sent to the model runtime",
		},
		[]string{"endpoint", "status"},
	)

	runtimeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nllbd",
			Subsystem: "runtime",
			Name:      "request_duration_seconds",
			Help:      "Model runtime request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal, httpRequestDuration, httpInflight,
		jobsTotal, jobDuration,
		runtimeRequestsTotal, runtimeRequestDuration,
	)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		httpInflight.WithLabelValues(r.URL.Path).Inc()
		defer httpInflight.WithLabelValues(r.URL.Path).Dec()

		next.ServeHTTP(sr, r)

		// Pattern is only known after routing.
		path := routePatternOrPath(r)
		statusLabel := strconv.Itoa(sr.status)
		httpRequestsTotal.WithLabelValues(path, r.Method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method, statusLabel).Observe(time.Since(start).Seconds())
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ObserveJob records one handled job. Its signature matches
// handler.ObserverFunc.
func ObserveJob(outcome string, d time.Duration) {
	if outcome == "" {
		outcome = "unspecified"
	}
	jobsTotal.WithLabelValues(outcome).Inc()
	jobDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveRuntime records one model runtime request. Its signature matches
// backend.ObserverFunc; status 0 means no response was received.
func ObserveRuntime(endpoint string, status int, d time.Duration) {
	runtimeRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	runtimeRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
