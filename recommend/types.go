// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import (
	"context"
	"time"

	"github.com/kinograph/kinograph/session"
)

// Candidate is one scored proposal from a single source, before merging.
type Candidate struct {
	// ID is the movie entity identifier (e.g. "Q603").
	ID string `json:"id"`

	// Score is the source-internal evidence accumulated for this movie.
	// The aggregator scales it by the source weight.
	Score float64 `json:"score"`

	// Reasons are human-readable explanations, insertion-ordered and
	// duplicate-free.
	Reasons []string `json:"reasons,omitempty"`

	// Quality is the normalized rating in [0, 1]; 0 means unknown.
	Quality float64 `json:"quality,omitempty"`
}

// AddReason appends a reason unless it is already present.
func (c *Candidate) AddReason(reason string) {
	for _, r := range c.Reasons {
		if r == reason {
			return
		}
	}
	c.Reasons = append(c.Reasons, reason)
}

// RankedEntry is one movie after aggregation, filtering and scoring.
type RankedEntry struct {
	// ID is the movie entity identifier.
	ID string `json:"id"`

	// Score is the final score: aggregated evidence plus quality bonus.
	Score float64 `json:"score"`

	// Reason is the single explanation chosen for presentation.
	Reason string `json:"reason"`
}

// Recommendation is one presentable result row.
type Recommendation struct {
	// ID is the movie entity identifier.
	ID string `json:"id"`

	// Label is the display title; falls back to the ID when the catalog
	// has no label.
	Label string `json:"label"`

	// Score is the final ranked score.
	Score float64 `json:"score"`

	// Reason explains why this movie was recommended.
	Reason string `json:"reason"`

	// ImageID is an optional poster/still identifier.
	ImageID string `json:"image_id,omitempty"`
}

// Status reports whether a request ran clean or with degradations.
type Status string

const (
	// StatusOK means every pipeline stage completed normally.
	StatusOK Status = "ok"

	// StatusDegraded means one or more stages failed and were bridged
	// (source skipped, filter failed open, diversity fell back).
	StatusDegraded Status = "degraded"
)

// EmptyReason distinguishes the two valid empty outcomes.
type EmptyReason string

const (
	// EmptyNoSeeds: the session had no seeds and no preferences, so
	// there was nothing to recommend from.
	EmptyNoSeeds EmptyReason = "no_seeds"

	// EmptyNoMatches: inputs existed but the pipeline produced nothing.
	EmptyNoMatches EmptyReason = "no_matches"
)

// Degradation records one bridged failure.
type Degradation struct {
	// Stage names where the failure happened: a source name, "filter",
	// or "diversity".
	Stage string `json:"stage"`

	// Reason is the failure description.
	Reason string `json:"reason"`
}

// Meta carries request diagnostics.
type Meta struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// Status is ok or degraded.
	Status Status `json:"status"`

	// Degradations lists every bridged failure, in pipeline order.
	Degradations []Degradation `json:"degradations,omitempty"`

	// Empty is set when no recommendations were produced.
	Empty EmptyReason `json:"empty,omitempty"`

	// SourceCounts maps source name to the number of candidates it
	// proposed.
	SourceCounts map[string]int `json:"source_counts,omitempty"`

	// Elapsed is the total request duration.
	Elapsed time.Duration `json:"elapsed"`
}

// Result is a complete recommendation response.
type Result struct {
	// Recommendations is the ordered, diversified list; may be empty.
	Recommendations []Recommendation `json:"recommendations"`

	// Meta carries diagnostics for the request.
	Meta Meta `json:"meta"`
}

// PropertyMatch is one row returned by a graph store query.
type PropertyMatch struct {
	// ID is the candidate movie entity identifier.
	ID string

	// ValueLabel is the label of the shared or matched value
	// ("Science Fiction" for a shared genre); may be empty.
	ValueLabel string

	// Rating is the raw rating on the provider scale (0-10); 0 when
	// unknown.
	Rating float64

	// Shared is the number of seeds sharing the value.
	Shared int
}

// Neighbor is one nearest-neighbor search hit.
type Neighbor struct {
	// ID is the movie entity identifier.
	ID string

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// GraphStore answers structured movie queries. The catalog package
// provides the production implementation; tests use fakes.
type GraphStore interface {
	// SharedProperty finds movies sharing values of one property with
	// any of the seeds, honoring constraints and negations and skipping
	// excluded IDs. Rows are ordered by descending shared-seed count and
	// capped at limit. One movie may appear in several rows, one per
	// distinct shared value.
	SharedProperty(ctx context.Context, seeds []string, property string,
		cons session.Constraints, negs []session.PropertyRef,
		exclude map[string]struct{}, limit int) ([]PropertyMatch, error)

	// MatchingPreferences finds movies carrying every given
	// property=value pair, with the same constraint, negation and
	// exclusion handling.
	MatchingPreferences(ctx context.Context, prefs map[string]string,
		cons session.Constraints, negs []session.PropertyRef,
		exclude map[string]struct{}, limit int) ([]PropertyMatch, error)

	// VerifyMembership returns the subset of ids satisfying all
	// constraints and violating no negation, in one batched call.
	VerifyMembership(ctx context.Context, ids []string,
		cons session.Constraints, negs []session.PropertyRef) (map[string]struct{}, error)
}

// VectorIndex answers embedding similarity queries.
type VectorIndex interface {
	// NearestNeighbors returns the k most similar movies to id,
	// excluding id itself. Returns ErrNoEmbedding when id has no vector.
	NearestNeighbors(id string, k int) ([]Neighbor, error)

	// EmbeddingOf returns the embedding for id, or ok=false.
	EmbeddingOf(id string) ([]float32, bool)

	// CosineSimilarity computes similarity between two embeddings.
	CosineSimilarity(a, b []float32) float64
}

// LabelResolver maps entity IDs to display labels.
type LabelResolver interface {
	LabelOf(ctx context.Context, id string) (string, bool)
}

// ImageResolver maps entity IDs to poster/still identifiers.
type ImageResolver interface {
	ImageOf(ctx context.Context, id string) (string, bool)
}

// RatingProvider exposes provider-scale ratings (0-10).
type RatingProvider interface {
	RatingOf(ctx context.Context, id string) (float64, bool)
}

// Interactions lists historical user-movie interactions for training.
type Interactions interface {
	// ByUser groups interacted movie IDs per user.
	ByUser(ctx context.Context) (map[string][]string, error)
}

// CandidateSource proposes scored candidates for a session. Sources must
// be safe for concurrent Propose calls; the engine fans out to all
// registered sources per request.
type CandidateSource interface {
	// Name identifies the source in logs, metrics and degradations.
	Name() string

	// Propose returns candidates for the session. An empty slice is a
	// normal outcome; an error makes the engine skip this source for
	// the request.
	Propose(ctx context.Context, sess *session.Session) ([]Candidate, error)
}

// Trainable is implemented by sources that learn from interaction
// history (the collaborative source).
type Trainable interface {
	Train(ctx context.Context) error
}

// DiversitySelector reorders a ranked list to balance relevance against
// redundancy, returning at most k entries.
type DiversitySelector interface {
	Select(ranked []RankedEntry, k int) ([]RankedEntry, error)
}
