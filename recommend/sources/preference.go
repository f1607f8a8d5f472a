// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package sources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/session"
)

// preferenceReason explains preference-matched candidates.
const preferenceReason = "it matches your preferences"

// Preference proposes movies matching every explicit property=value
// preference in the session. Each match scores a flat 1.0; the strong
// prior for explicit preferences lives in the source's merge weight, so
// configuration alone controls how dominant preferences are.
type Preference struct {
	store recommend.GraphStore
	limit int
	log   zerolog.Logger
}

// NewPreference creates the preference source.
func NewPreference(store recommend.GraphStore, limit int, log zerolog.Logger) *Preference {
	return &Preference{
		store: store,
		limit: limit,
		log:   log.With().Str("source", "preference").Logger(),
	}
}

// Name implements recommend.CandidateSource.
func (p *Preference) Name() string { return "preference" }

// Propose implements recommend.CandidateSource.
func (p *Preference) Propose(ctx context.Context, sess *session.Session) ([]recommend.Candidate, error) {
	if len(sess.Preferences) == 0 {
		return nil, nil
	}

	rows, err := p.store.MatchingPreferences(ctx, sess.Preferences,
		sess.Constraints, sess.Negations, sess.ExcludeSet(), p.limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]recommend.Candidate, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, recommend.Candidate{
			ID:      row.ID,
			Score:   1.0,
			Reasons: []string{preferenceReason},
			Quality: normalizeRating(row.Rating),
		})
	}
	return out, nil
}

var _ recommend.CandidateSource = (*Preference)(nil)
