package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that no route matched, keeping scanner
// traffic out of the label space.
const unmatchedRoute = "unmatched"

// harnessMetrics holds the collectors exported by the harness. They are
// process-wide and live in the default registry next to the App's bridge
// collectors, so one /metrics scrape shows both.
type harnessMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inflight     prometheus.Gauge
	backpressure *prometheus.CounterVec
	errors       *prometheus.CounterVec
}

func newHarnessMetrics() *harnessMetrics {
	return &harnessMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		// Inference requests run for seconds, so buckets reach past 40s.
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llmbridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"route", "method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "llmbridge",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "HTTP requests currently being served.",
		}),
		backpressure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmbridge",
			Subsystem: "http",
			Name:      "backpressure_total",
			Help:      "Requests rejected with 429 because the model was busy.",
		}, []string{"reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmbridge",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by error kind.",
		}, []string{"kind"}),
	}
}

func (m *harnessMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.inflight, m.backpressure, m.errors}
}

var metrics = newHarnessMetrics()

func init() {
	prometheus.MustRegister(metrics.collectors()...)
}

// MetricsMiddleware counts and times requests. The route label is read
// after the handler ran, once chi has resolved the pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.inflight.Inc()
		defer metrics.inflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := routeLabel(r)
		metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(writtenStatus(ww))).Inc()
		metrics.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// writtenStatus treats a handler that never called WriteHeader as 200.
func writtenStatus(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

func countBackpressure(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	metrics.backpressure.WithLabelValues(reason).Inc()
}

func countError(kind string) {
	if kind == "" {
		kind = "http"
	}
	metrics.errors.WithLabelValues(kind).Inc()
}
