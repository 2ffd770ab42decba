package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "openwhispr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route, method and status.",
		},
		[]string{"path", "method", "status"},
	)

	// Transcribing a long recording can take minutes, so the buckets
	// stretch well past the prometheus defaults.
	requestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "openwhispr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 180, 600},
		},
		[]string{"path", "method", "status"},
	)

	responseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "openwhispr",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"path"},
	)

	inflightRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "openwhispr",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Requests currently being served.",
		},
		[]string{"path"},
	)

	throttledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "openwhispr",
			Subsystem: "http",
			Name:      "throttled_total",
			Help:      "Requests rejected with 429, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestSeconds, responseBytes, inflightRequests, throttledTotal)
}

// responseRecorder captures the status code and body size of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(p []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

// MetricsMiddleware records count, latency and response size per route.
// The final labels are resolved after the handler ran: mounted inside a
// chi router, the route pattern is only known once routing happened.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflight := metricPath(r)
		inflightRequests.WithLabelValues(inflight).Inc()
		defer inflightRequests.WithLabelValues(inflight).Dec()

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		path := metricPath(r)
		status := strconv.Itoa(rec.status)
		requestsTotal.WithLabelValues(path, r.Method, status).Inc()
		requestSeconds.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		responseBytes.WithLabelValues(path).Observe(float64(rec.bytes))
	})
}

// metricPath labels by the chi route pattern where one matched, keeping
// label cardinality bounded. Unrouted requests fall back to the raw path.
func metricPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// MarkThrottled counts a request rejected for load shedding.
func MarkThrottled(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	throttledTotal.WithLabelValues(reason).Inc()
}
