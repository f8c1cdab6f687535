// Package metrics holds the prometheus collectors shared by the storefront.
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
			Name: "flowerseal_http_requests_total",
			Help: "Total number of HTTP requests served by the storefront",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowerseal_http_request_duration_seconds",
			Help:    "Duration of storefront HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowerseal_upstream_requests_total",
			Help: "Calls made to the remote flower API",
		},
		[]string{"method", "endpoint", "outcome"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowerseal_upstream_request_duration_seconds",
			Help:    "Duration of calls to the remote flower API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	resourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowerseal_resource_fetches_total",
			Help: "Resource reads by result (hit, miss, coalesced, error, disabled)",
		},
		[]string{"resource", "result"},
	)

	mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowerseal_mutations_total",
			Help: "Mutations executed against the remote API",
		},
		[]string{"mutation", "status"},
	)

	busEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowerseal_bus_events_total",
			Help: "Notification bus events by topic and delivery",
		},
		[]string{"topic", "delivery"},
	)
)

// Instrument records request count and latency for one route, labelled with
// its ServeMux pattern.
func Instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordUpstream(method, endpoint, outcome string, d time.Duration) {
	upstreamRequests.WithLabelValues(method, endpoint, outcome).Inc()
	upstreamDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func RecordFetch(resource, result string) {
	resourceFetches.WithLabelValues(resource, result).Inc()
}

func RecordMutation(name string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	mutations.WithLabelValues(name, status).Inc()
}

func RecordBusEvent(topic string, delivered bool) {
	delivery := "delivered"
	if !delivered {
		delivery = "dropped"
	}
	busEvents.WithLabelValues(topic, delivery).Inc()
}
