// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

// defaultReason explains candidates whose sources gave no reason.
const defaultReason = "is a potential match"

// sourcePool holds one source's weighted proposal set.
type sourcePool struct {
	name       string
	weight     float64
	candidates []Candidate
}

// mergeCandidates combines per-source pools into a single candidate map.
// Pools are processed in registration order so merging is deterministic.
// The merged score is exactly the sum of weighted source scores: a
// candidate seen for the first time starts at its weighted source score,
// later sightings add theirs, union reasons and keep the highest quality.
func mergeCandidates(pools []sourcePool) map[string]*Candidate {
	merged := make(map[string]*Candidate)

	for _, pool := range pools {
		for i := range pool.candidates {
			c := &pool.candidates[i]

			existing, ok := merged[c.ID]
			if !ok {
				entry := &Candidate{
					ID:      c.ID,
					Score:   c.Score * pool.weight,
					Quality: c.Quality,
				}
				if len(c.Reasons) > 0 {
					entry.Reasons = append([]string(nil), c.Reasons...)
				} else {
					entry.Reasons = []string{defaultReason}
				}
				merged[c.ID] = entry
				continue
			}

			existing.Score += c.Score * pool.weight
			for _, r := range c.Reasons {
				existing.AddReason(r)
			}
			if c.Quality > existing.Quality {
				existing.Quality = c.Quality
			}
		}
	}

	return merged
}
