// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package diversity implements post-processing that trades a little
// relevance for variety in the final recommendation list.
package diversity

import (
	"errors"
	"fmt"
	"math"

	"github.com/kinograph/kinograph/recommend"
)

// defaultLambda is used when the configured balance is out of range.
const defaultLambda = 0.7

// MMR selects recommendations by Maximal Marginal Relevance.
// It balances relevance and diversity by iteratively picking the entry
// that is both relevant and dissimilar to everything picked so far:
//
//	mmr = lambda * relevance(i) - (1-lambda) * max(sim(i, s)) for s in selected
//
// Where:
//   - lambda: balance parameter (1.0 = pure relevance, 0.0 = pure diversity)
//   - relevance(i): ranked score of entry i, normalized by the list maximum
//   - sim(i, s): embedding cosine similarity between i and selected entry s
//
// Entries without an embedding are only eligible for the first pick, so
// the result may be shorter than k. The top-ranked entry is always kept:
// diversity never costs the best match.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	index  recommend.VectorIndex
	lambda float64
}

// NewMMR creates an MMR selector. Lambda values outside (0, 1] fall back
// to the default of 0.7.
func NewMMR(index recommend.VectorIndex, lambda float64) *MMR {
	if lambda <= 0 || lambda > 1 {
		lambda = defaultLambda
	}
	return &MMR{index: index, lambda: lambda}
}

// Select returns up to k entries from the ranked list, reordered for
// diversity. Entries keep the scores they arrived with.
func (m *MMR) Select(ranked []recommend.RankedEntry, k int) ([]recommend.RankedEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if m.index == nil {
		return nil, errors.New("nil vector index")
	}
	if len(ranked) <= k {
		return ranked, nil
	}

	// Normalize relevance so lambda weighs scores and similarities on
	// the same scale.
	maxScore := ranked[0].Score
	for _, e := range ranked[1:] {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}
	relevance := make([]float64, len(ranked))
	vecs := make([][]float32, len(ranked))
	for i, e := range ranked {
		relevance[i] = e.Score / maxScore
		if vec, ok := m.index.EmbeddingOf(e.ID); ok {
			vecs[i] = vec
		}
	}

	// The best match is kept unconditionally, embedding or not.
	order := make([]int, 0, k)
	order = append(order, 0)
	picked := map[int]struct{}{0: {}}

	for len(order) < k {
		bestIdx := -1
		bestMMR := math.Inf(-1)

		for i := range ranked {
			if _, ok := picked[i]; ok {
				continue
			}
			if vecs[i] == nil {
				continue
			}

			// A selected entry without a vector (only ever the top
			// pick) contributes zero similarity.
			maxSim := 0.0
			for _, j := range order {
				if sim := m.index.CosineSimilarity(vecs[i], vecs[j]); sim > maxSim {
					maxSim = sim
				}
			}

			score := m.lambda*relevance[i] - (1-m.lambda)*maxSim
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}
		order = append(order, bestIdx)
		picked[bestIdx] = struct{}{}
	}

	out := make([]recommend.RankedEntry, 0, len(order))
	for _, idx := range order {
		out = append(out, ranked[idx])
	}
	return out, nil
}

// Ensure MMR implements the interface.
var _ recommend.DiversitySelector = (*MMR)(nil)
