// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

/*
Package metrics provides Prometheus metrics collection for the
recommendation pipeline.

Collectors are registered on the default registry via promauto; an embedding
host exposes them with promhttp.Handler() if it serves HTTP.

# Available Metrics

Pipeline:
  - recommend_requests_total: completed requests (counter)
    Labels: status (ok, degraded)
  - recommend_stage_duration_seconds: per-stage latency (histogram)
    Labels: stage (sources, merge, filter, rank, diversify, total)
  - recommend_empty_results_total: empty outcomes (counter)
    Labels: reason (no_seeds, no_matches)

Sources:
  - source_candidates_total: candidates proposed (counter), label: source
  - source_errors_total: source failures (counter), label: source

Filter and diversity:
  - filter_verifications_total: filter passes (counter)
    Labels: outcome (applied, skipped, failed_open)
  - filter_truncations_total: pools truncated before verification (counter)
  - diversity_fallbacks_total: selections that fell back to rank order (counter)

Catalog and sessions:
  - catalog_query_duration_seconds / catalog_query_errors_total, label: operation
  - session_store_operations_total, labels: operation, result

Resilience and training:
  - circuit_breaker_state / _requests_total / _state_transitions_total
  - trainer_runs_total, trainer_duration_seconds, trainer_last_success_timestamp

All recording functions are safe for concurrent use. Label values come from
fixed constant sets to keep cardinality bounded; entity and user IDs never
appear as labels.
*/
package metrics
