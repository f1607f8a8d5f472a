// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package sources

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/session"
)

// fallbackValueLabel stands in for shared values without a label.
const fallbackValueLabel = "a shared property"

// Graph proposes movies sharing property values with the session seeds.
// It runs one store query per property rule; a movie sharing several
// values accumulates the property weight once per distinct value, so two
// shared genres count the genre weight twice.
type Graph struct {
	store      recommend.GraphStore
	properties []recommend.PropertyRule
	limit      int
	log        zerolog.Logger
}

// NewGraph creates the graph source. properties is the ordered rule
// table; limit caps the rows fetched per property query.
func NewGraph(store recommend.GraphStore, properties []recommend.PropertyRule,
	limit int, log zerolog.Logger) *Graph {
	return &Graph{
		store:      store,
		properties: properties,
		limit:      limit,
		log:        log.With().Str("source", "graph").Logger(),
	}
}

// Name implements recommend.CandidateSource.
func (g *Graph) Name() string { return "graph" }

// Propose implements recommend.CandidateSource. A failing property query
// logs and continues with the remaining rules; the source errors only
// when every query failed.
func (g *Graph) Propose(ctx context.Context, sess *session.Session) ([]recommend.Candidate, error) {
	if len(sess.Seeds) == 0 {
		return nil, nil
	}

	seeds := sess.SeedList()
	exclude := sess.ExcludeSet()

	acc := make(map[string]*recommend.Candidate)
	var order []string
	var lastErr error
	failures := 0

	for _, rule := range g.properties {
		rows, err := g.store.SharedProperty(ctx, seeds, rule.Property,
			sess.Constraints, sess.Negations, exclude, g.limit)
		if err != nil {
			g.log.Warn().
				Err(err).
				Str("property", rule.Property).
				Msg("shared property query failed")
			lastErr = err
			failures++
			continue
		}

		for _, row := range rows {
			c, ok := acc[row.ID]
			if !ok {
				c = &recommend.Candidate{ID: row.ID}
				acc[row.ID] = c
				order = append(order, row.ID)
			}

			c.Score += rule.Weight
			label := row.ValueLabel
			if label == "" {
				label = fallbackValueLabel
			}
			c.AddReason(fmt.Sprintf("%s '%s'", rule.Reason, label))
			if q := normalizeRating(row.Rating); q > c.Quality {
				c.Quality = q
			}
		}
	}

	if failures == len(g.properties) && lastErr != nil {
		return nil, fmt.Errorf("all property queries failed: %w", lastErr)
	}

	out := make([]recommend.Candidate, 0, len(acc))
	for _, id := range order {
		out = append(out, *acc[id])
	}
	return out, nil
}

// normalizeRating maps a provider-scale rating (0-10) into [0, 1].
func normalizeRating(rating float64) float64 {
	q := rating / 10
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

var _ recommend.CandidateSource = (*Graph)(nil)
