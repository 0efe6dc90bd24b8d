package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics counts and times API requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg *prometheus.Registry) *HTTPMetrics {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitshelf_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status class",
		},
		[]string{"method", "route", "status"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"method", "route", "status"},
	)

	reg.MustRegister(requests, duration)

	return &HTTPMetrics{requests: requests, duration: duration}
}

// Request records one finished request. route is the matched mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *HTTPMetrics) Request(method, route string, status int, d time.Duration) {
	class := statusClass(status)
	m.requests.WithLabelValues(method, route, class).Inc()
	m.duration.WithLabelValues(method, route, class).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
