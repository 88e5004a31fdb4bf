package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval index and answer metrics.
var (
	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_chunks",
			Help:      "Number of chunks in the published index snapshot",
		},
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_rebuilds_total",
			Help:      "Index rebuilds by outcome",
		},
		[]string{"status"}, // "success" / "error"
	)

	IndexRebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Full index rebuild duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Top-k search duration in seconds, query embedding included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_indexed_total",
			Help:      "Documents submitted for indexing, by outcome",
		},
		[]string{"status"}, // "indexed" / "empty" / "error"
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "answers_total",
			Help:      "Answered questions by outcome",
		},
		[]string{"outcome"}, // "found" / "not_found" / "error"
	)
)

func indexCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		IndexChunks,
		IndexRebuildsTotal,
		IndexRebuildDuration,
		SearchDuration,
		DocumentsIndexedTotal,
		AnswersTotal,
	}
}
