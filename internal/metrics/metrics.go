// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation pipeline:
// - request outcomes and per-stage latency
// - candidate source yield and failures
// - constraint filter behavior (applied, skipped, failed open)
// - catalog query performance (DuckDB)
// - circuit breaker state
// - collaborative trainer runs

var (
	// Recommendation Pipeline Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"status"}, // "ok", "degraded"
	)

	RecommendStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_stage_duration_seconds",
			Help:    "Duration of recommendation pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "sources", "merge", "filter", "rank", "diversity", "total"
	)

	EmptyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_empty_results_total",
			Help: "Total number of requests that produced no recommendations",
		},
		[]string{"reason"}, // "no_seeds", "no_matches"
	)

	// Candidate Source Metrics
	SourceCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_candidates_total",
			Help: "Total number of candidates proposed per source",
		},
		[]string{"source"},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_errors_total",
			Help: "Total number of candidate source failures",
		},
		[]string{"source"},
	)

	// Constraint Filter Metrics
	FilterOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_verifications_total",
			Help: "Total number of constraint filter passes by outcome",
		},
		[]string{"outcome"}, // "applied", "skipped", "failed_open"
	)

	FilterTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_truncations_total",
			Help: "Total number of candidate pools truncated before verification",
		},
	)

	DiversityFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diversity_fallbacks_total",
			Help: "Total number of diversity selections that fell back to rank order",
		},
	)

	// Catalog Metrics (DuckDB)
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_errors_total",
			Help: "Total number of catalog query errors",
		},
		[]string{"operation"},
	)

	// Session Store Metrics
	SessionStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_operations_total",
			Help: "Total number of session store operations",
		},
		[]string{"operation", "result"}, // operation: "load", "save", "delete"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Trainer Metrics
	TrainerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainer_runs_total",
			Help: "Total number of collaborative trainer runs",
		},
		[]string{"result"}, // "success", "failure"
	)

	TrainerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trainer_duration_seconds",
			Help:    "Duration of trainer runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300}, // training can take minutes
		},
	)

	TrainerLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trainer_last_success_timestamp",
			Help: "Unix timestamp of last successful trainer run",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordRequest records a completed recommendation request.
func RecordRequest(status string, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(status).Inc()
	RecommendStageDuration.WithLabelValues("total").Observe(duration.Seconds())
}

// RecordStage records the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	RecommendStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordSourceResult records a candidate source outcome.
func RecordSourceResult(source string, candidates int, err error) {
	if err != nil {
		SourceErrors.WithLabelValues(source).Inc()
		return
	}
	SourceCandidates.WithLabelValues(source).Add(float64(candidates))
}

// RecordFilterOutcome records a constraint filter pass.
func RecordFilterOutcome(outcome string) {
	FilterOutcomes.WithLabelValues(outcome).Inc()
}

// RecordEmptyResult records a request that produced no recommendations.
func RecordEmptyResult(reason string) {
	EmptyResults.WithLabelValues(reason).Inc()
}

// RecordCatalogQuery records a catalog query metric.
func RecordCatalogQuery(operation string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordSessionStoreOp records a session store operation.
func RecordSessionStoreOp(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SessionStoreOps.WithLabelValues(operation, result).Inc()
}

// RecordTrainerRun records a trainer run and its outcome.
func RecordTrainerRun(duration time.Duration, err error) {
	TrainerDuration.Observe(duration.Seconds())
	if err != nil {
		TrainerRuns.WithLabelValues("failure").Inc()
		return
	}
	TrainerRuns.WithLabelValues("success").Inc()
	TrainerLastSuccess.Set(float64(time.Now().Unix()))
}
