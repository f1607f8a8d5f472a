// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import (
	"context"
	"sort"

	"github.com/kinograph/kinograph/internal/metrics"
	"github.com/kinograph/kinograph/session"
)

// filterCandidates re-verifies merged candidates against the session's
// constraints and negations in one batched graph query.
//
// Sources push constraints down where they can, but the embedding and
// collaborative paths propose on similarity alone, so the merged set may
// contain violators. The filter is the single enforcement point.
//
// Verification failure fails OPEN: the candidate set flows through
// unchanged with a filter degradation recorded. A hard filter during a
// store outage would turn every constrained request into an empty result.
func (e *Engine) filterCandidates(ctx context.Context, cands map[string]*Candidate,
	sess *session.Session) (map[string]*Candidate, []Degradation) {

	if !sess.Constraints.Active() && len(sess.Negations) == 0 {
		metrics.RecordFilterOutcome("skipped")
		return cands, nil
	}
	if len(cands) == 0 {
		metrics.RecordFilterOutcome("skipped")
		return cands, nil
	}

	cands = e.truncateForVerification(cands)

	ids := make([]string, 0, len(cands))
	for id := range cands {
		ids = append(ids, id)
	}

	verified, err := e.deps.Graph.VerifyMembership(ctx, ids, sess.Constraints, sess.Negations)
	if err != nil {
		e.log.Warn().
			Err(err).
			Int("candidates", len(cands)).
			Msg("constraint verification failed, keeping unverified set")
		metrics.RecordFilterOutcome("failed_open")
		return cands, []Degradation{{Stage: "filter", Reason: err.Error()}}
	}

	kept := make(map[string]*Candidate, len(verified))
	for id := range verified {
		if c, ok := cands[id]; ok {
			kept[id] = c
		}
	}

	e.log.Debug().
		Int("before", len(cands)).
		Int("after", len(kept)).
		Msg("constraint filter applied")
	metrics.RecordFilterOutcome("applied")

	return kept, nil
}

// truncateForVerification caps the verification batch at MaxVerify,
// keeping the highest aggregated scores. Ties break by ascending ID so
// truncation is deterministic.
func (e *Engine) truncateForVerification(cands map[string]*Candidate) map[string]*Candidate {
	if len(cands) <= e.config.MaxVerify {
		return cands
	}

	ordered := make([]*Candidate, 0, len(cands))
	for _, c := range cands {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].ID < ordered[j].ID
	})

	kept := make(map[string]*Candidate, e.config.MaxVerify)
	for _, c := range ordered[:e.config.MaxVerify] {
		kept[c.ID] = c
	}

	e.log.Debug().
		Int("dropped", len(cands)-len(kept)).
		Int("max_verify", e.config.MaxVerify).
		Msg("truncated candidates before verification")
	metrics.FilterTruncations.Inc()

	return kept
}
