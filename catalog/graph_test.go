// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package catalog

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/session"
)

func exclude(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func matchIDs(matches []recommend.PropertyMatch) string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return strings.Join(ids, " ")
}

func verifiedIDs(set map[string]struct{}) string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, " ")
}

func TestSharedPropertyGenre(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)
	ctx := context.Background()

	matches, err := db.SharedProperty(ctx, []string{"Q1"}, "P136",
		session.Constraints{}, nil, exclude("Q1"), 20)
	if err != nil {
		t.Fatalf("SharedProperty() error = %v", err)
	}

	// Every science fiction film except the seed, ID order on equal
	// seed counts.
	if got := matchIDs(matches); got != "Q2 Q3 Q5 Q6" {
		t.Fatalf("candidates = %q, want \"Q2 Q3 Q5 Q6\"", got)
	}

	first := matches[0]
	if first.ValueLabel != "Science Fiction" {
		t.Errorf("value label = %q, want Science Fiction", first.ValueLabel)
	}
	if first.Rating != 8.5 {
		t.Errorf("rating = %f, want 8.5", first.Rating)
	}
	if first.Shared != 1 {
		t.Errorf("shared = %d, want 1", first.Shared)
	}
}

func TestSharedPropertyCountsSeeds(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)
	ctx := context.Background()

	matches, err := db.SharedProperty(ctx, []string{"Q1", "Q3"}, "P136",
		session.Constraints{}, nil, exclude("Q1", "Q3"), 20)
	if err != nil {
		t.Fatalf("SharedProperty() error = %v", err)
	}

	if got := matchIDs(matches); got != "Q2 Q5 Q6" {
		t.Fatalf("candidates = %q, want \"Q2 Q5 Q6\"", got)
	}
	for _, m := range matches {
		if m.Shared != 2 {
			t.Errorf("%s shared = %d, want 2 (both seeds share the genre)", m.ID, m.Shared)
		}
	}
}

func TestSharedPropertyOneRowPerValue(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)
	ctx := context.Background()

	// Alien carries both genres, so The Thing matches it twice.
	matches, err := db.SharedProperty(ctx, []string{"Q2"}, "P136",
		session.Constraints{}, nil, exclude("Q2"), 20)
	if err != nil {
		t.Fatalf("SharedProperty() error = %v", err)
	}

	if got := matchIDs(matches); got != "Q1 Q3 Q5 Q6 Q6" {
		t.Fatalf("candidates = %q, want \"Q1 Q3 Q5 Q6 Q6\"", got)
	}

	var labels []string
	for _, m := range matches {
		if m.ID == "Q6" {
			labels = append(labels, m.ValueLabel)
		}
	}
	if len(labels) != 2 || labels[0] != "Horror" || labels[1] != "Science Fiction" {
		t.Errorf("Q6 value labels = %v, want [Horror Science Fiction]", labels)
	}
}

func TestSharedPropertyDirector(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)
	ctx := context.Background()

	matches, err := db.SharedProperty(ctx, []string{"Q1"}, "P57",
		session.Constraints{}, nil, exclude("Q1"), 20)
	if err != nil {
		t.Fatalf("SharedProperty() error = %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "Q2" || matches[0].ValueLabel != "Ridley Scott" {
		t.Errorf("matches = %v, want Alien via Ridley Scott", matches)
	}
}

func TestSharedPropertyConstraints(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)
	ctx := context.Background()

	tests := []struct {
		name string
		cons session.Constraints
		negs []session.PropertyRef
		want string
	}{
		{
			name: "year before 2000 excludes unknown years",
			cons: session.Constraints{Year: &session.YearConstraint{Op: "<", Year: 2000}},
			want: "Q2 Q6",
		},
		{
			name: "year equality",
			cons: session.Constraints{Year: &session.YearConstraint{Op: "=", Year: 1982}},
			want: "Q6",
		},
		{
			name: "inclusive year range",
			cons: session.Constraints{YearRange: &session.YearRange{From: 1979, To: 1982}},
			want: "Q2 Q6",
		},
		{
			name: "minimum rating",
			cons: session.Constraints{MinRating: 8.0},
			want: "Q2 Q6",
		},
		{
			name: "negation drops horror",
			negs: []session.PropertyRef{{Property: "P136", Value: "Q200092"}},
			want: "Q3 Q5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := db.SharedProperty(ctx, []string{"Q1"}, "P136",
				tt.cons, tt.negs, exclude("Q1"), 20)
			if err != nil {
				t.Fatalf("SharedProperty() error = %v", err)
			}
			if got := matchIDs(matches); got != tt.want {
				t.Errorf("candidates = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSharedPropertyInvalidYearOp(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	cons := session.Constraints{Year: &session.YearConstraint{Op: "LIKE", Year: 1982}}
	_, err := db.SharedProperty(context.Background(), []string{"Q1"}, "P136",
		cons, nil, nil, 20)
	if err == nil {
		t.Error("SharedProperty() with invalid operator = nil error, want error")
	}
}

func TestSharedPropertyLimit(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	matches, err := db.SharedProperty(context.Background(), []string{"Q1"}, "P136",
		session.Constraints{}, nil, exclude("Q1"), 2)
	if err != nil {
		t.Fatalf("SharedProperty() error = %v", err)
	}
	if got := matchIDs(matches); got != "Q2 Q3" {
		t.Errorf("candidates = %q, want the first two by ID", got)
	}
}

func TestSharedPropertyNoSeeds(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	matches, err := db.SharedProperty(context.Background(), nil, "P136",
		session.Constraints{}, nil, nil, 20)
	if err != nil {
		t.Fatalf("SharedProperty() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches without seeds, want 0", len(matches))
	}
}

func TestMatchingPreferencesOrdersByRating(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	matches, err := db.MatchingPreferences(context.Background(),
		map[string]string{"P136": "Q471839"},
		session.Constraints{}, nil, nil, 20)
	if err != nil {
		t.Fatalf("MatchingPreferences() error = %v", err)
	}
	if got := matchIDs(matches); got != "Q2 Q6 Q1 Q3 Q5" {
		t.Errorf("candidates = %q, want best rated first", got)
	}
}

func TestMatchingPreferencesRequireEveryPair(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	matches, err := db.MatchingPreferences(context.Background(),
		map[string]string{"P136": "Q471839", "P57": "Q51552"},
		session.Constraints{}, nil, nil, 20)
	if err != nil {
		t.Fatalf("MatchingPreferences() error = %v", err)
	}
	if got := matchIDs(matches); got != "Q2 Q1" {
		t.Errorf("candidates = %q, want only the Ridley Scott science fiction films", got)
	}
}

func TestMatchingPreferencesExclusionsAndConstraints(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	matches, err := db.MatchingPreferences(context.Background(),
		map[string]string{"P136": "Q471839"},
		session.Constraints{MinRating: 8.0}, nil, exclude("Q2"), 20)
	if err != nil {
		t.Fatalf("MatchingPreferences() error = %v", err)
	}
	if got := matchIDs(matches); got != "Q6 Q1" {
		t.Errorf("candidates = %q, want \"Q6 Q1\"", got)
	}
}

func TestMatchingPreferencesEmpty(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	matches, err := db.MatchingPreferences(context.Background(), nil,
		session.Constraints{}, nil, nil, 20)
	if err != nil {
		t.Fatalf("MatchingPreferences() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches without preferences, want 0", len(matches))
	}
}

func TestVerifyMembershipChecksExistence(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)

	verified, err := db.VerifyMembership(context.Background(),
		[]string{"Q1", "Q999"}, session.Constraints{}, nil)
	if err != nil {
		t.Fatalf("VerifyMembership() error = %v", err)
	}
	if got := verifiedIDs(verified); got != "Q1" {
		t.Errorf("verified = %q, want only the known movie", got)
	}
}

func TestVerifyMembershipConstraints(t *testing.T) {
	db := setupCatalog(t)
	seedCatalog(t, db)
	all := []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6"}

	tests := []struct {
		name string
		ids  []string
		cons session.Constraints
		negs []session.PropertyRef
		want string
	}{
		{
			name: "language",
			ids:  all,
			cons: session.Constraints{Language: "Q1860"},
			want: "Q1 Q2 Q3 Q6",
		},
		{
			name: "minimum rating drops unrated",
			ids:  all,
			cons: session.Constraints{MinRating: 8.2},
			want: "Q2 Q4 Q6",
		},
		{
			name: "year constraint drops unknown years",
			ids:  all,
			cons: session.Constraints{Year: &session.YearConstraint{Op: "<", Year: 2000}},
			want: "Q1 Q2 Q6",
		},
		{
			name: "negation",
			ids:  []string{"Q1", "Q2", "Q6"},
			negs: []session.PropertyRef{{Property: "P136", Value: "Q200092"}},
			want: "Q1",
		},
		{
			name: "combined constraints",
			ids:  all,
			cons: session.Constraints{Language: "Q1860", MinRating: 8.2},
			want: "Q2 Q6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verified, err := db.VerifyMembership(context.Background(), tt.ids, tt.cons, tt.negs)
			if err != nil {
				t.Fatalf("VerifyMembership() error = %v", err)
			}
			if got := verifiedIDs(verified); got != tt.want {
				t.Errorf("verified = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerifyMembershipEmptyInput(t *testing.T) {
	db := setupCatalog(t)

	verified, err := db.VerifyMembership(context.Background(), nil, session.Constraints{}, nil)
	if err != nil {
		t.Fatalf("VerifyMembership() error = %v", err)
	}
	if len(verified) != 0 {
		t.Errorf("got %d verified from empty input, want 0", len(verified))
	}
}
