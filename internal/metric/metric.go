// Package metric exposes Prometheus collectors for the HTTP server and the
// image pipeline.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every collector the service reports.
type Registry struct {
	registry *prometheus.Registry
	http     *HTTPMetrics
	imaging  *ImagingMetrics
}

// New creates a registry with Go runtime, process, HTTP and imaging collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		registry: reg,
		http:     newHTTPMetrics(reg),
		imaging:  newImagingMetrics(reg),
	}
}

// HTTP returns the request collectors.
func (r *Registry) HTTP() *HTTPMetrics {
	return r.http
}

// Imaging returns the compression collectors.
func (r *Registry) Imaging() *ImagingMetrics {
	return r.imaging
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
