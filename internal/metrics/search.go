package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total searches by the tier that produced the results",
		},
		[]string{"tier"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"tier"},
	)

	SearchTierOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_tier_outcomes_total",
			Help:      "Retrieval tier attempts by outcome (hit, empty, skipped, error)",
		},
		[]string{"tier", "outcome"},
	)

	AnalyzerSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_intent_source_total",
			Help:      "Query intents by producing source (ai, fallback)",
		},
		[]string{"source", "reason"},
	)

	ExtractionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_requests_total",
			Help:      "Total structured extraction requests",
		},
		[]string{"model", "status"},
	)

	CorpusRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_refresh_total",
			Help:      "Corpus snapshot reloads by result",
		},
		[]string{"result"},
	)

	CorpusSnapshotSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_snapshot_records",
			Help:      "Number of destinations in the current snapshot",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search, extraction and corpus metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchTierOutcomesTotal)
	prometheus.MustRegister(AnalyzerSourceTotal)
	prometheus.MustRegister(ExtractionRequestsTotal)
	prometheus.MustRegister(CorpusRefreshTotal)
	prometheus.MustRegister(CorpusSnapshotSize)
	searchMetricsRegistered = true
}
