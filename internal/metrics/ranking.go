package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Extraction and ranking Prometheus metrics.
var (
	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Text extractions by source format, method and outcome",
		},
		[]string{"format", "method", "outcome"},
	)

	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Text extraction duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	RankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rankings_total",
			Help:      "Ranking requests by strategy and status",
		},
		[]string{"strategy", "status"},
	)

	RankingDocuments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_documents",
			Help:      "Number of documents per ranking request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

var registerOnce sync.Once

// Register registers HTTP, embedding, extraction and ranking metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestDuration,
			HTTPRequestsTotal,
			HTTPRequestsInFlight,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			ExtractionsTotal,
			ExtractionDuration,
			RankingsTotal,
			RankingDocuments,
		)
	})
}
