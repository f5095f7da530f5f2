package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline and model-provider Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "visearch",
			Name:      "provider_requests_total",
			Help:      "Total number of model provider calls",
		},
		[]string{"stage", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "visearch",
			Name:      "provider_request_duration_seconds",
			Help:      "Model provider call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"stage"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "visearch",
			Name:      "provider_tokens_total",
			Help:      "Total model provider tokens consumed",
		},
		[]string{"stage", "type"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "visearch",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by terminal outcome",
		},
		[]string{"outcome"}, // "results" / "not-furniture" / "error" / "aborted"
	)

	CandidatesRetrieved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "visearch",
			Name:      "candidates_retrieved",
			Help:      "Candidate set size produced by the retrieval cascade",
			Buckets:   []float64{0, 5, 10, 20, 30, 50, 75, 100},
		},
	)

	FeedbackVotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "visearch",
			Name:      "feedback_votes_total",
			Help:      "Result feedback votes recorded",
		},
		[]string{"verdict"}, // "helpful" / "unhelpful"
	)
)

// RegisterPipelineMetrics registers the pipeline and provider metrics.
// Called explicitly from the composition root (no init()).
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderTokensTotal,
		PipelineRunsTotal,
		CandidatesRetrieved,
		FeedbackVotesTotal,
	)
}
