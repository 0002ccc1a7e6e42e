// Package metrics defines the Prometheus instruments for the pipeline.
// Call Init once at startup; recording into unregistered collectors is
// still safe in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StageDuration observes wall time per pipeline stage
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustpipe_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// StageFailures counts stage executions that exhausted their retries
	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustpipe_stage_failures_total",
			Help: "Pipeline stages that failed after all retry attempts",
		},
		[]string{"stage"},
	)

	// StageFallbacks counts degradations to heuristic output
	StageFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustpipe_stage_fallbacks_total",
			Help: "Pipeline stages that degraded to heuristic output",
		},
		[]string{"stage"},
	)

	// Verdicts counts fact-check verdicts by value
	Verdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustpipe_fact_check_verdicts_total",
			Help: "Fact-check verdicts produced",
		},
		[]string{"verdict"},
	)

	// PipelineRuns counts completed pipeline runs by final status
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustpipe_pipeline_runs_total",
			Help: "Completed pipeline runs by final publish status",
		},
		[]string{"status"},
	)

	// ConsensusDecisions counts consensus resolutions by outcome
	ConsensusDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustpipe_consensus_decisions_total",
			Help: "Review consensus resolutions by resulting status",
		},
		[]string{"status"},
	)

	// ReviewEscalations counts items escalated after sitting in review
	// past the configured expiry
	ReviewEscalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trustpipe_review_escalations_total",
			Help: "Items escalated after exceeding the review expiry window",
		},
	)

	// InferenceTokens counts tokens consumed by the inference provider
	InferenceTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trustpipe_inference_tokens_total",
			Help: "Tokens consumed by inference calls",
		},
	)
)

// Init registers all collectors with the default registry
func Init() {
	prometheus.MustRegister(
		StageDuration,
		StageFailures,
		StageFallbacks,
		Verdicts,
		PipelineRuns,
		ConsensusDecisions,
		ReviewEscalations,
		InferenceTokens,
	)
}
