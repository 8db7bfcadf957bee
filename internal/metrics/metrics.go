// Package metrics registers the Prometheus instruments for the prediction
// and recommendation core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine lifecycle
	InitializeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_engine_initialize_total",
			Help: "Engine initializations by outcome",
		},
		[]string{"outcome"}, // "ok", "degraded"
	)

	InitializeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prepcoach_engine_initialize_duration_seconds",
			Help:    "Time spent fetching and training during Initialize",
			Buckets: prometheus.DefBuckets,
		},
	)

	BundlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_bundles_total",
			Help: "Recommendation bundles assembled",
		},
		[]string{"state"}, // "complete", "degraded"
	)

	// Predictor
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_predictions_total",
			Help: "Predictions served by path",
		},
		[]string{"path"}, // "baseline", "model"
	)

	// Collaborative filter
	ContentRecommendations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prepcoach_content_recommendations",
			Help:    "Number of content recommendations returned per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	// Boundary validation
	RejectedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_rejected_rows_total",
			Help: "Rows dropped at the data-source boundary because they failed validation",
		},
		[]string{"kind"}, // "record", "rating"
	)

	// Circuit breaker around the data source
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prepcoach_circuit_breaker_state",
			Help: "Breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_circuit_breaker_transitions_total",
			Help: "Breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_circuit_breaker_requests_total",
			Help: "Requests through the breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Narration
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_llm_requests_total",
			Help: "LLM requests by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepcoach_llm_tokens_total",
			Help: "LLM tokens consumed",
		},
		[]string{"direction"}, // "input", "output"
	)
)
