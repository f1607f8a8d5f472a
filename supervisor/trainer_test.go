// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeEngine counts Train calls and optionally fails.
type fakeEngine struct {
	calls atomic.Int64
	err   error
}

func (f *fakeEngine) Train(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestTrainerTrainsOnStart(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	trainer := NewTrainer(engine, TrainerConfig{
		Interval:     time.Hour,
		TrainOnStart: true,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- trainer.Serve(ctx) }()

	waitFor(t, func() bool { return engine.calls.Load() == 1 })
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestTrainerRunsOnSchedule(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	trainer := NewTrainer(engine, TrainerConfig{
		Interval: 10 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trainer.Serve(ctx) }()

	waitFor(t, func() bool { return engine.calls.Load() >= 2 })
}

func TestTrainerSurvivesTrainingErrors(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: errors.New("no interactions")}
	trainer := NewTrainer(engine, TrainerConfig{
		Interval:     10 * time.Millisecond,
		TrainOnStart: true,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- trainer.Serve(ctx) }()

	// The service keeps ticking past repeated failures.
	waitFor(t, func() bool { return engine.calls.Load() >= 3 })

	select {
	case err := <-done:
		t.Fatalf("Serve() returned early: %v", err)
	default:
	}
}

func TestTrainerDefaults(t *testing.T) {
	t.Parallel()

	trainer := NewTrainer(&fakeEngine{}, TrainerConfig{}, zerolog.Nop())
	if trainer.config.Interval != 6*time.Hour {
		t.Errorf("Interval = %s, want 6h", trainer.config.Interval)
	}
	if trainer.config.RunTimeout != 30*time.Minute {
		t.Errorf("RunTimeout = %s, want 30m", trainer.config.RunTimeout)
	}
	if trainer.String() != "trainer" {
		t.Errorf("String() = %q, want %q", trainer.String(), "trainer")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}
