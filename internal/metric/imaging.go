package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/kitshelf/internal/imaging"
	"github.com/erazemk/kitshelf/internal/model"
)

var _ imaging.Observer = (*ImagingMetrics)(nil)

// ImagingMetrics tracks bytes through the compressor per derived size.
type ImagingMetrics struct {
	bytesIn  *prometheus.CounterVec
	bytesOut *prometheus.CounterVec
	failures *prometheus.CounterVec
	ratio    *prometheus.HistogramVec
}

func newImagingMetrics(reg *prometheus.Registry) *ImagingMetrics {
	bytesIn := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitshelf_image_source_bytes_total",
			Help: "Source bytes fed to the compressor by target size",
		},
		[]string{"size"},
	)

	bytesOut := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitshelf_image_compressed_bytes_total",
			Help: "Compressed bytes produced by target size",
		},
		[]string{"size"},
	)

	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitshelf_image_compression_failures_total",
			Help: "Failed compressions by target size",
		},
		[]string{"size"},
	)

	ratio := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitshelf_image_compression_ratio",
			Help:    "Compressed size divided by source size",
			Buckets: []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
		},
		[]string{"size"},
	)

	reg.MustRegister(bytesIn, bytesOut, failures, ratio)

	return &ImagingMetrics{
		bytesIn:  bytesIn,
		bytesOut: bytesOut,
		failures: failures,
		ratio:    ratio,
	}
}

func (m *ImagingMetrics) Compressed(size model.ImageSize, inBytes, outBytes int64) {
	label := string(size)
	m.bytesIn.WithLabelValues(label).Add(float64(inBytes))
	m.bytesOut.WithLabelValues(label).Add(float64(outBytes))
	if inBytes > 0 {
		m.ratio.WithLabelValues(label).Observe(float64(outBytes) / float64(inBytes))
	}
}

func (m *ImagingMetrics) Failed(size model.ImageSize) {
	m.failures.WithLabelValues(string(size)).Inc()
}
