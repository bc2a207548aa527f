package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(httpRequestDurationMs)
}

var httpRequestDurationMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency distribution in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 400, 800, 1600},
	},
	[]string{"method", "path", "status"},
)

func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	httpRequestDurationMs.WithLabelValues(method, path, status).Observe(float64(d.Milliseconds()))
}
