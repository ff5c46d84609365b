package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flatfundpro_validation_decisions_total",
		Help: "Validation decisions by terminal status",
	}, []string{"status"})

	duplicateProofsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flatfundpro_duplicate_proofs_total",
		Help: "Payment proofs whose fingerprint matched an earlier submission",
	})

	flaggedAnalysesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flatfundpro_flagged_analyses_total",
		Help: "Fraud analyses whose composite score crossed the flag threshold",
	})

	analyzerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flatfundpro_analyzer_failures_total",
		Help: "Non-fatal analyzer failures absorbed by the pipeline",
	}, []string{"analyzer"})

	classifierCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flatfundpro_classifier_cache_hits_total",
		Help: "External classifier calls served from the fingerprint cache",
	})
)
