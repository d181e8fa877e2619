// Package telemetry holds the Prometheus collectors of the nearby service.
package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Proximity cache lookups by result (hit, miss, skipped)
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_cache_lookups_total",
			Help: "Total number of proximity cache lookups",
		},
		[]string{"result"},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nearby_cache_entries",
			Help: "Number of coordinates held in the proximity cache",
		},
	)

	// Remote places calls by operation and status
	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_remote_calls_total",
			Help: "Total number of calls to the places backend",
		},
		[]string{"operation", "status"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nearby_query_duration_seconds",
			Help:    "Nearby places lookup latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nearby_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nearby_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

// RecordCacheLookup counts a cache lookup; result is "hit", "miss" or "skipped"
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetCacheEntries publishes the current cache size
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordRemoteCall counts a backend call
func RecordRemoteCall(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	remoteCallsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveQuery records the latency of a nearby lookup; outcome is "cache", "fetched", "empty" or "error"
func ObserveQuery(outcome string, d time.Duration) {
	queryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler exposes the default registry for scraping
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware collects request counts and latency for every route except /metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasPrefix(path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		httpActiveRequests.Inc()
		defer httpActiveRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeLabel(path)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses per-key KV paths so label cardinality stays bounded
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/kv/") {
		return "/api/kv/{key}"
	}
	return path
}
