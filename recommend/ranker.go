// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import (
	"sort"
	"strings"
)

// similarityReasonPrefix marks reasons produced by the embedding path.
// Reason selection prefers concrete shared-property explanations over
// generic similarity.
const similarityReasonPrefix = "it's similar to"

// rankCandidates turns the filtered candidate map into an ordered list.
// The final score is the aggregated evidence plus a quality bonus of
// Quality times RatingWeight. Ties break by ascending ID so ranking is
// deterministic across runs.
func (e *Engine) rankCandidates(cands map[string]*Candidate) []RankedEntry {
	ranked := make([]RankedEntry, 0, len(cands))
	for _, c := range cands {
		ranked = append(ranked, RankedEntry{
			ID:     c.ID,
			Score:  c.Score + c.Quality*e.config.RatingWeight,
			Reason: pickReason(c.Reasons),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	return ranked
}

// pickReason selects the explanation shown to the user: the first reason
// that is not a similarity reason, else the first reason.
func pickReason(reasons []string) string {
	if len(reasons) == 0 {
		return defaultReason
	}
	for _, r := range reasons {
		if !strings.HasPrefix(r, similarityReasonPrefix) {
			return r
		}
	}
	return reasons[0]
}
