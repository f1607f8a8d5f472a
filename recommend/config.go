// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import "fmt"

// Config contains the runtime parameters of the recommendation engine.
type Config struct {
	// TopK is the default number of recommendations to return.
	// Default: 5.
	TopK int `json:"top_k"`

	// PerQueryLimit caps the rows returned per graph store query.
	// Default: 20.
	PerQueryLimit int `json:"per_query_limit"`

	// NeighborK is the number of nearest neighbors fetched per seed.
	// Default: 20.
	NeighborK int `json:"neighbor_k"`

	// MaxVerify caps the number of candidates sent to constraint
	// verification. Larger merged sets are truncated to the MaxVerify
	// highest aggregated scores first.
	// Default: 200.
	MaxVerify int `json:"max_verify"`

	// RatingWeight scales the normalized rating bonus added at ranking.
	// A 10/10 movie gains RatingWeight on top of its aggregated score.
	// Default: 0.2.
	RatingWeight float64 `json:"rating_weight"`

	// Lambda balances relevance against diversity in MMR selection.
	// 1.0 = pure relevance, 0.0 = pure diversity.
	// Default: 0.7.
	Lambda float64 `json:"lambda"`

	// Weights defines the merge contribution of each candidate source.
	Weights SourceWeights `json:"weights"`

	// Properties is the ordered table of graph properties the graph
	// source queries, with per-property weights and reason prefixes.
	Properties []PropertyRule `json:"properties"`
}

// SourceWeights defines the merge contribution of each candidate source.
// Weights are applied as-is, not normalized: they encode absolute priors
// (an explicit preference match counts double, similarity-only evidence
// counts a tenth).
type SourceWeights struct {
	// Graph is the weight for shared-property evidence.
	// Default: 1.0.
	Graph float64 `json:"graph"`

	// Preference is the weight for explicit preference matches.
	// Default: 2.0.
	Preference float64 `json:"preference"`

	// Embedding is the weight for embedding-similarity evidence.
	// Default: 0.1.
	Embedding float64 `json:"embedding"`

	// Collaborative is the weight for co-occurrence evidence.
	// Default: 0.3.
	Collaborative float64 `json:"collaborative"`
}

// PropertyRule is one row of the graph property table.
type PropertyRule struct {
	// Property is the graph property identifier (e.g. "P136").
	Property string `json:"property"`

	// Weight is the score earned per shared value of this property.
	Weight float64 `json:"weight"`

	// Reason is the prefix for generated explanations, completed with
	// the shared value label: "shares the genre 'Science Fiction'".
	Reason string `json:"reason"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		TopK:          5,
		PerQueryLimit: 20,
		NeighborK:     20,
		MaxVerify:     200,
		RatingWeight:  0.2,
		Lambda:        0.7,
		Weights: SourceWeights{
			Graph:         1.0,
			Preference:    2.0,
			Embedding:     0.1,
			Collaborative: 0.3,
		},
		Properties: DefaultProperties(),
	}
}

// DefaultProperties returns the standard property table, ordered by
// descending weight.
func DefaultProperties() []PropertyRule {
	return []PropertyRule{
		{Property: "P136", Weight: 1.0, Reason: "shares the genre"},
		{Property: "P179", Weight: 0.9, Reason: "is in the same series as"},
		{Property: "P57", Weight: 0.8, Reason: "has the same director"},
		{Property: "P4969", Weight: 0.7, Reason: "is based on similar work as"},
		{Property: "P161", Weight: 0.5, Reason: "shares an actor"},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.PerQueryLimit < 1 {
		return fmt.Errorf("per_query_limit must be positive, got %d", c.PerQueryLimit)
	}
	if c.NeighborK < 1 {
		return fmt.Errorf("neighbor_k must be positive, got %d", c.NeighborK)
	}
	if c.MaxVerify < c.TopK {
		return fmt.Errorf("max_verify must be >= top_k, got %d < %d", c.MaxVerify, c.TopK)
	}
	if c.RatingWeight < 0 {
		return fmt.Errorf("rating_weight must be non-negative, got %f", c.RatingWeight)
	}
	if c.Lambda <= 0 || c.Lambda > 1 {
		return fmt.Errorf("lambda must be in (0, 1], got %f", c.Lambda)
	}
	if c.Weights.Graph <= 0 {
		return fmt.Errorf("weights.graph must be positive, got %f", c.Weights.Graph)
	}
	if c.Weights.Preference <= c.Weights.Graph {
		return fmt.Errorf("weights.preference must exceed weights.graph, got %f <= %f",
			c.Weights.Preference, c.Weights.Graph)
	}
	if c.Weights.Embedding <= 0 || c.Weights.Embedding >= c.Weights.Graph {
		return fmt.Errorf("weights.embedding must be in (0, weights.graph), got %f", c.Weights.Embedding)
	}
	if c.Weights.Collaborative < 0 {
		return fmt.Errorf("weights.collaborative must be non-negative, got %f", c.Weights.Collaborative)
	}
	if len(c.Properties) == 0 {
		return fmt.Errorf("properties table cannot be empty")
	}
	for i, p := range c.Properties {
		if p.Property == "" {
			return fmt.Errorf("properties[%d].property cannot be empty", i)
		}
		if p.Weight <= 0 || p.Weight > 1 {
			return fmt.Errorf("properties[%d].weight must be in (0, 1], got %f", i, p.Weight)
		}
		if p.Reason == "" {
			return fmt.Errorf("properties[%d].reason cannot be empty", i)
		}
	}
	return nil
}
