// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/session"
)

// similarityReason explains embedding-matched candidates.
const similarityReason = "it's similar to movies you like"

// Embedding proposes nearest neighbors of the session seeds. Similarity
// accumulates across seeds: a movie close to two seeds scores the sum of
// both similarities. Seeds without an embedding are skipped silently; a
// missing vector disables the similarity step for that seed only.
//
// The source does not pre-apply session constraints. The engine's
// constraint filter enforces them on the merged set.
type Embedding struct {
	index recommend.VectorIndex
	k     int
	log   zerolog.Logger
}

// NewEmbedding creates the embedding source. k is the neighbor count
// fetched per seed.
func NewEmbedding(index recommend.VectorIndex, k int, log zerolog.Logger) *Embedding {
	return &Embedding{
		index: index,
		k:     k,
		log:   log.With().Str("source", "embedding").Logger(),
	}
}

// Name implements recommend.CandidateSource.
func (e *Embedding) Name() string { return "embedding" }

// Propose implements recommend.CandidateSource.
func (e *Embedding) Propose(ctx context.Context, sess *session.Session) ([]recommend.Candidate, error) {
	if len(sess.Seeds) == 0 {
		return nil, nil
	}

	exclude := sess.ExcludeSet()
	acc := make(map[string]*recommend.Candidate)
	var order []string

	for _, seed := range sess.SeedList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		neighbors, err := e.index.NearestNeighbors(seed, e.k)
		if err != nil {
			if errors.Is(err, recommend.ErrNoEmbedding) {
				e.log.Debug().Str("seed", seed).Msg("seed has no embedding")
				continue
			}
			return nil, fmt.Errorf("nearest neighbors for %s: %w", seed, err)
		}

		for _, n := range neighbors {
			if _, skip := exclude[n.ID]; skip {
				continue
			}

			c, ok := acc[n.ID]
			if !ok {
				c = &recommend.Candidate{ID: n.ID}
				acc[n.ID] = c
				order = append(order, n.ID)
			}
			c.Score += n.Score
			c.AddReason(similarityReason)
		}
	}

	out := make([]recommend.Candidate, 0, len(acc))
	for _, id := range order {
		out = append(out, *acc[id])
	}
	return out, nil
}

var _ recommend.CandidateSource = (*Embedding)(nil)
