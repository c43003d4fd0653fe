// Package metrics holds the prometheus collectors of the media pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rendition sources.
const (
	SourceCache       = "cache"
	SourceLegacy      = "legacy"
	SourceGenerated   = "generated"
	SourcePlaceholder = "placeholder"
)

var (
	RenditionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallerix_rendition_requests_total",
		Help: "Rendition responses by kind and by where the bytes came from.",
	}, []string{"kind", "source"})

	GenerateSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gallerix_rendition_generate_seconds",
		Help:    "Time spent decoding, resizing and encoding one rendition.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
)

func ObserveRendition(kind, source string) {
	RenditionRequests.WithLabelValues(kind, source).Inc()
}
