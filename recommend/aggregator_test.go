// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import "testing"

func TestMergeCandidatesFirstSighting(t *testing.T) {
	t.Parallel()

	pools := []sourcePool{
		{
			name:   "graph",
			weight: 1.0,
			candidates: []Candidate{
				{ID: "Q2", Score: 1.8, Reasons: []string{"shares the genre 'Drama'"}, Quality: 0.8},
			},
		},
	}

	merged := mergeCandidates(pools)
	if len(merged) != 1 {
		t.Fatalf("got %d merged candidates, want 1", len(merged))
	}

	c := merged["Q2"]
	if c == nil {
		t.Fatal("Q2 missing from merged set")
	}
	if want := 1.8; c.Score != want {
		t.Errorf("score = %f, want %f", c.Score, want)
	}
	if len(c.Reasons) != 1 || c.Reasons[0] != "shares the genre 'Drama'" {
		t.Errorf("reasons = %v, want the source reason only", c.Reasons)
	}
	if c.Quality != 0.8 {
		t.Errorf("quality = %f, want 0.8", c.Quality)
	}
}

func TestMergeCandidatesDefaultReason(t *testing.T) {
	t.Parallel()

	pools := []sourcePool{
		{name: "graph", weight: 1.0, candidates: []Candidate{{ID: "Q2", Score: 1.0}}},
	}

	merged := mergeCandidates(pools)
	c := merged["Q2"]
	if len(c.Reasons) != 1 || c.Reasons[0] != defaultReason {
		t.Errorf("reasons = %v, want only %q", c.Reasons, defaultReason)
	}
}

func TestMergeCandidatesAccumulates(t *testing.T) {
	t.Parallel()

	pools := []sourcePool{
		{
			name:   "graph",
			weight: 1.0,
			candidates: []Candidate{
				{ID: "Q2", Score: 1.8, Reasons: []string{"shares the genre 'Drama'"}, Quality: 0.8},
			},
		},
		{
			name:   "embedding",
			weight: 0.1,
			candidates: []Candidate{
				{ID: "Q2", Score: 0.26, Reasons: []string{"it's similar to movies you like"}, Quality: 0.3},
				{ID: "Q3", Score: 0.4, Reasons: []string{"it's similar to movies you like"}},
			},
		},
	}

	merged := mergeCandidates(pools)
	if len(merged) != 2 {
		t.Fatalf("got %d merged candidates, want 2", len(merged))
	}

	q2 := merged["Q2"]
	want := 1.8*1.0 + 0.26*0.1
	if diff := q2.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Q2 score = %f, want %f", q2.Score, want)
	}
	if len(q2.Reasons) != 2 {
		t.Errorf("Q2 reasons = %v, want union of both sources", q2.Reasons)
	}
	if q2.Reasons[0] != "shares the genre 'Drama'" {
		t.Errorf("first reason = %q, want the graph reason (registration order)", q2.Reasons[0])
	}
	if q2.Quality != 0.8 {
		t.Errorf("Q2 quality = %f, want max 0.8", q2.Quality)
	}

	q3 := merged["Q3"]
	want = 0.4 * 0.1
	if diff := q3.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Q3 score = %f, want %f", q3.Score, want)
	}
}

func TestMergeCandidatesExactWeightedSum(t *testing.T) {
	t.Parallel()

	// Graph finds one shared-genre match for the seed; the embedding
	// index neighbors both it and a second movie. The merged score must
	// be exactly the weighted sum of source scores, nothing added.
	pools := []sourcePool{
		{
			name:   "graph",
			weight: 1.0,
			candidates: []Candidate{
				{ID: "M2", Score: 2.0, Reasons: []string{"shares the genre 'Drama'"}},
			},
		},
		{
			name:   "embedding",
			weight: 0.1,
			candidates: []Candidate{
				{ID: "M2", Score: 0.6, Reasons: []string{"it's similar to movies you like"}},
				{ID: "M3", Score: 0.4, Reasons: []string{"it's similar to movies you like"}},
			},
		},
	}

	merged := mergeCandidates(pools)

	if got, want := merged["M2"].Score, 2.06; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("M2 score = %f, want %f", got, want)
	}
	if got, want := merged["M3"].Score, 0.04; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("M3 score = %f, want %f", got, want)
	}
}

func TestMergeCandidatesDeduplicatesReasons(t *testing.T) {
	t.Parallel()

	pools := []sourcePool{
		{
			name:   "a",
			weight: 1.0,
			candidates: []Candidate{
				{ID: "Q2", Score: 1.0, Reasons: []string{"shares an actor 'Harrison Ford'"}},
			},
		},
		{
			name:   "b",
			weight: 1.0,
			candidates: []Candidate{
				{ID: "Q2", Score: 0.5, Reasons: []string{"shares an actor 'Harrison Ford'"}},
			},
		},
	}

	merged := mergeCandidates(pools)
	if got := len(merged["Q2"].Reasons); got != 1 {
		t.Errorf("got %d reasons, want 1 after dedup", got)
	}
}

func TestMergeCandidatesQualityTakesMax(t *testing.T) {
	t.Parallel()

	pools := []sourcePool{
		{name: "a", weight: 1.0, candidates: []Candidate{{ID: "Q2", Score: 1.0, Quality: 0.3}}},
		{name: "b", weight: 1.0, candidates: []Candidate{{ID: "Q2", Score: 1.0, Quality: 0.9}}},
		{name: "c", weight: 1.0, candidates: []Candidate{{ID: "Q2", Score: 1.0, Quality: 0.5}}},
	}

	merged := mergeCandidates(pools)
	if merged["Q2"].Quality != 0.9 {
		t.Errorf("quality = %f, want max 0.9", merged["Q2"].Quality)
	}
}

func TestMergeCandidatesEmptyPools(t *testing.T) {
	t.Parallel()

	if got := len(mergeCandidates(nil)); got != 0 {
		t.Errorf("got %d candidates from nil pools, want 0", got)
	}
	if got := len(mergeCandidates([]sourcePool{{name: "graph", weight: 1.0}})); got != 0 {
		t.Errorf("got %d candidates from empty pool, want 0", got)
	}
}
