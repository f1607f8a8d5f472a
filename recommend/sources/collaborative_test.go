// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package sources

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/recommend"
)

// fakeInteractions implements recommend.Interactions.
type fakeInteractions struct {
	data map[string][]string
	err  error
}

var _ recommend.Interactions = (*fakeInteractions)(nil)

func (f *fakeInteractions) ByUser(ctx context.Context) (map[string][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %f, want %f", name, got, want)
	}
}

func TestCollaborativeName(t *testing.T) {
	t.Parallel()

	c := NewCollaborative(&fakeInteractions{}, 50, zerolog.Nop())
	if c.Name() != "collaborative" {
		t.Errorf("Name() = %q, want collaborative", c.Name())
	}
}

func TestCollaborativeUntrainedProposesNothing(t *testing.T) {
	t.Parallel()

	c := NewCollaborative(&fakeInteractions{}, 50, zerolog.Nop())
	cands, err := c.Propose(context.Background(), sessionWithSeeds("Q1"))
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates before training, want 0", len(cands))
	}
}

func TestCollaborativeTrainAndPropose(t *testing.T) {
	t.Parallel()

	// Two users watched A and B together, a third watched A and C.
	// counts: A=3, B=2, C=1; co(A,B)=2, co(A,C)=1.
	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "B"},
		"u2": {"A", "B"},
		"u3": {"A", "C"},
	}}
	c := NewCollaborative(inter, 50, zerolog.Nop())

	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	cands, err := c.Propose(context.Background(), sessionWithSeeds("A"))
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}

	// Neighbors come out sorted by similarity, normalized so the
	// strongest scores 1.0.
	if cands[0].ID != "B" {
		t.Fatalf("first candidate = %s, want B", cands[0].ID)
	}
	approx(t, "B score", cands[0].Score, 1.0)

	simAB := 2 / math.Sqrt(3*2)
	simAC := 1 / math.Sqrt(3*1)
	if cands[1].ID != "C" {
		t.Fatalf("second candidate = %s, want C", cands[1].ID)
	}
	approx(t, "C score", cands[1].Score, simAC/simAB)

	for _, cand := range cands {
		if len(cand.Reasons) != 1 || cand.Reasons[0] != "fans of the same movies watched it" {
			t.Errorf("%s reasons = %v, want the collaborative reason", cand.ID, cand.Reasons)
		}
	}
}

func TestCollaborativeAccumulatesAcrossSeeds(t *testing.T) {
	t.Parallel()

	// C co-occurs with both A and B, so seeding on both should rank
	// it above any single-seed neighbor.
	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "C"},
		"u2": {"A", "C"},
		"u3": {"B", "C"},
		"u4": {"B", "C"},
		"u5": {"A", "D"},
	}}
	c := NewCollaborative(inter, 50, zerolog.Nop())

	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	cands, err := c.Propose(context.Background(), sessionWithSeeds("A", "B"))
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) == 0 || cands[0].ID != "C" {
		t.Fatalf("candidates = %v, want C first", cands)
	}
	approx(t, "C score", cands[0].Score, 1.0)
}

func TestCollaborativeCapsNeighbors(t *testing.T) {
	t.Parallel()

	// A co-occurs strongly with B, weakly with C. A cap of one keeps
	// only the strongest neighbor.
	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "B"},
		"u2": {"A", "B"},
		"u3": {"A", "C"},
	}}
	c := NewCollaborative(inter, 1, zerolog.Nop())

	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	cands, err := c.Propose(context.Background(), sessionWithSeeds("A"))
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "B" {
		t.Errorf("candidates = %v, want only B", cands)
	}
}

func TestCollaborativeExcludesWatched(t *testing.T) {
	t.Parallel()

	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "B", "C"},
		"u2": {"A", "B", "C"},
	}}
	c := NewCollaborative(inter, 50, zerolog.Nop())

	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	sess := sessionWithSeeds("A")
	sess.Recommended["B"] = struct{}{}

	cands, err := c.Propose(context.Background(), sess)
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "C" {
		t.Errorf("candidates = %v, want only C", cands)
	}
}

func TestCollaborativeDuplicateHistoryCountsOnce(t *testing.T) {
	t.Parallel()

	// u1 rewatched A. Co-occurrence counts distinct titles per user,
	// so the pair count stays 1 and similarity stays co/sqrt(1*1).
	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "A", "B"},
	}}
	c := NewCollaborative(inter, 50, zerolog.Nop())

	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	cands, err := c.Propose(context.Background(), sessionWithSeeds("A"))
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	approx(t, "B score", cands[0].Score, 1.0)
}

func TestCollaborativeEmptyHistoryKeepsModel(t *testing.T) {
	t.Parallel()

	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "B"},
		"u2": {"A", "B"},
	}}
	c := NewCollaborative(inter, 50, zerolog.Nop())

	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	inter.data = nil
	if err := c.Train(context.Background()); err != nil {
		t.Fatalf("Train() on empty history error = %v", err)
	}

	cands, err := c.Propose(context.Background(), sessionWithSeeds("A"))
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "B" {
		t.Errorf("candidates = %v, want the model trained before the empty refresh", cands)
	}
}

func TestCollaborativeTrainPropagatesErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("history unavailable")
	c := NewCollaborative(&fakeInteractions{err: wantErr}, 50, zerolog.Nop())

	if err := c.Train(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Train() error = %v, want %v", err, wantErr)
	}
}

func TestCollaborativeTrainHonorsCancellation(t *testing.T) {
	t.Parallel()

	inter := &fakeInteractions{data: map[string][]string{
		"u1": {"A", "B"},
	}}
	c := NewCollaborative(inter, 50, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Train(ctx); err == nil {
		t.Error("Train() = nil error with cancelled context, want error")
	}
}
