package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthchain_analyses_total",
			Help: "Total analyses processed, by final verdict",
		},
		[]string{"verdict", "input_type"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "truthchain_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"input_type"},
	)

	FusedConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "truthchain_fused_confidence",
			Help:    "Fused verdict confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	SignalFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthchain_signal_failures_total",
			Help: "Signal sources that degraded or failed, by source",
		},
		[]string{"source"},
	)

	FactCheckOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthchain_factcheck_outcomes_total",
			Help: "External fact-check lookup outcomes, by status",
		},
		[]string{"status"},
	)

	DeepAnalysisShortCircuits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truthchain_deep_analysis_short_circuits_total",
			Help: "Deep analyses skipped because an external fact-check was authoritative",
		},
	)

	ClassifierDegraded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truthchain_classifier_degraded_total",
			Help: "Classifications served by the keyword fallback instead of the model",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthchain_cache_hits_total",
			Help: "Analysis cache hits",
		},
		[]string{"result"},
	)

	HeadlinesAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truthchain_headlines_analyzed_total",
			Help: "Headlines processed by the daily digest",
		},
	)

	PersistenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truthchain_persistence_failures_total",
			Help: "Best-effort store writes that failed",
		},
	)
)

func Init() {
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(FusedConfidence)
	prometheus.MustRegister(SignalFailures)
	prometheus.MustRegister(FactCheckOutcomes)
	prometheus.MustRegister(DeepAnalysisShortCircuits)
	prometheus.MustRegister(ClassifierDegraded)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(HeadlinesAnalyzed)
	prometheus.MustRegister(PersistenceFailures)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
