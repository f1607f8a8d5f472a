// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package session holds per-user conversational state for the
// recommendation engine: seed movies the user likes, extracted
// preferences, hard constraints, negations, and the movies already
// recommended. State accumulates across turns; a follow-up turn ratchets
// the last recommendations into seeds so "more like that" keeps moving
// forward instead of repeating itself.
package session

import (
	"sort"
)

// Session is the conversational state for a single user. It is not safe
// for concurrent use; the Manager serializes access per user.
type Session struct {
	UserID      string
	Seeds       map[string]struct{}
	Preferences map[string]string
	Constraints Constraints
	Negations   []PropertyRef
	Recommended map[string]struct{}
	History     []Turn
}

// Constraints are the hard filters a candidate must satisfy. Zero values
// mean unconstrained.
type Constraints struct {
	Year      *YearConstraint
	YearRange *YearRange
	Language  string
	MinRating float64
}

// YearConstraint compares a movie's release year. Op is one of
// ">", "<", ">=", "<=", "=".
type YearConstraint struct {
	Op   string
	Year int
}

// YearRange is an inclusive [From, To] release-year window.
type YearRange struct {
	From int
	To   int
}

// PropertyRef names a property/value pair, used for negations
// ("no horror movies" becomes {P136, Q200092}).
type PropertyRef struct {
	Property string
	Value    string
}

// Turn is one exchange in the conversation history.
type Turn struct {
	Role string
	Text string
}

// Update carries the structured output of one parsed user turn.
type Update struct {
	Seeds       []string
	Preferences map[string]string
	Constraints *Constraints
	Negations   []PropertyRef
	FollowUp    bool
}

// Active reports whether any constraint is set.
func (c Constraints) Active() bool {
	return c.Year != nil || c.YearRange != nil || c.Language != "" || c.MinRating > 0
}

// New creates an empty session for the given user.
func New(userID string) *Session {
	return &Session{
		UserID:      userID,
		Seeds:       make(map[string]struct{}),
		Preferences: make(map[string]string),
		Recommended: make(map[string]struct{}),
	}
}

// Apply merges one turn's update into the session. Seeds union in,
// preferences overwrite key by key, constraints replace field-wise, and
// negations append deduplicated. The ratchet runs last: a follow-up turn
// that brings no new seeds promotes the previously recommended movies to
// seeds and clears the recommended set, so the next request builds on
// what the user just accepted.
func (s *Session) Apply(u Update) {
	for _, id := range u.Seeds {
		s.Seeds[id] = struct{}{}
	}

	for k, v := range u.Preferences {
		s.Preferences[k] = v
	}

	if u.Constraints != nil {
		if u.Constraints.Year != nil {
			yc := *u.Constraints.Year
			s.Constraints.Year = &yc
		}
		if u.Constraints.YearRange != nil {
			yr := *u.Constraints.YearRange
			s.Constraints.YearRange = &yr
		}
		if u.Constraints.Language != "" {
			s.Constraints.Language = u.Constraints.Language
		}
		if u.Constraints.MinRating > 0 {
			s.Constraints.MinRating = u.Constraints.MinRating
		}
	}

	for _, n := range u.Negations {
		if !s.hasNegation(n) {
			s.Negations = append(s.Negations, n)
		}
	}

	if u.FollowUp && len(u.Seeds) == 0 && len(s.Recommended) > 0 {
		for id := range s.Recommended {
			s.Seeds[id] = struct{}{}
		}
		s.Recommended = make(map[string]struct{})
	}
}

func (s *Session) hasNegation(ref PropertyRef) bool {
	for _, n := range s.Negations {
		if n == ref {
			return true
		}
	}
	return false
}

// AddRecommended records movies that were just shown to the user so they
// are excluded from future candidate generation.
func (s *Session) AddRecommended(ids []string) {
	for _, id := range ids {
		s.Recommended[id] = struct{}{}
	}
}

// AddTurn appends one exchange to the conversation history.
func (s *Session) AddTurn(role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
}

// ExcludeSet returns a fresh set of every movie that must not be
// recommended again: the seeds and everything already recommended.
// Callers may mutate the returned map.
func (s *Session) ExcludeSet() map[string]struct{} {
	out := make(map[string]struct{}, len(s.Seeds)+len(s.Recommended))
	for id := range s.Seeds {
		out[id] = struct{}{}
	}
	for id := range s.Recommended {
		out[id] = struct{}{}
	}
	return out
}

// SeedList returns the seeds as a sorted slice for deterministic queries.
func (s *Session) SeedList() []string {
	out := make([]string, 0, len(s.Seeds))
	for id := range s.Seeds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the session carries nothing to recommend from:
// no seeds and no preferences.
func (s *Session) Empty() bool {
	return len(s.Seeds) == 0 && len(s.Preferences) == 0
}

// Clear resets everything except the user ID.
func (s *Session) Clear() {
	s.Seeds = make(map[string]struct{})
	s.Preferences = make(map[string]string)
	s.Constraints = Constraints{}
	s.Negations = nil
	s.Recommended = make(map[string]struct{})
	s.History = nil
}

// Clone returns a deep copy. Stores use it to avoid aliasing live state.
func (s *Session) Clone() *Session {
	out := &Session{
		UserID:      s.UserID,
		Seeds:       make(map[string]struct{}, len(s.Seeds)),
		Preferences: make(map[string]string, len(s.Preferences)),
		Constraints: s.Constraints,
		Recommended: make(map[string]struct{}, len(s.Recommended)),
	}
	for id := range s.Seeds {
		out.Seeds[id] = struct{}{}
	}
	for k, v := range s.Preferences {
		out.Preferences[k] = v
	}
	if s.Constraints.Year != nil {
		yc := *s.Constraints.Year
		out.Constraints.Year = &yc
	}
	if s.Constraints.YearRange != nil {
		yr := *s.Constraints.YearRange
		out.Constraints.YearRange = &yr
	}
	if len(s.Negations) > 0 {
		out.Negations = make([]PropertyRef, len(s.Negations))
		copy(out.Negations, s.Negations)
	}
	for id := range s.Recommended {
		out.Recommended[id] = struct{}{}
	}
	if len(s.History) > 0 {
		out.History = make([]Turn, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
