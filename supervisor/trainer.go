// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/internal/metrics"
)

// Engine is the training entry point of the recommendation engine. The
// indirection keeps this package free of a recommend import cycle and
// lets tests inject failures.
type Engine interface {
	Train(ctx context.Context) error
}

// TrainerConfig controls the training schedule.
type TrainerConfig struct {
	// Interval between training runs. Defaults to 6h when unset.
	Interval time.Duration

	// TrainOnStart triggers one run before the ticker starts.
	TrainOnStart bool

	// RunTimeout bounds a single training run. Defaults to 30m.
	RunTimeout time.Duration
}

// Trainer periodically retrains the engine's learning sources. Training
// errors are logged and counted; they never stop the service.
type Trainer struct {
	engine Engine
	config TrainerConfig
	log    zerolog.Logger
}

// NewTrainer creates the training service.
func NewTrainer(engine Engine, cfg TrainerConfig, log zerolog.Logger) *Trainer {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	return &Trainer{
		engine: engine,
		config: cfg,
		log:    log.With().Str("service", "trainer").Logger(),
	}
}

// Serve implements suture.Service.
func (t *Trainer) Serve(ctx context.Context) error {
	t.log.Info().
		Dur("interval", t.config.Interval).
		Bool("train_on_start", t.config.TrainOnStart).
		Msg("trainer starting")

	if t.config.TrainOnStart {
		if err := t.train(ctx); err != nil {
			t.log.Warn().Err(err).Msg("initial training failed, will retry on schedule")
		}
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("trainer shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := t.train(ctx); err != nil {
				t.log.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// train runs one bounded training cycle.
func (t *Trainer) train(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, t.config.RunTimeout)
	defer cancel()

	start := time.Now()
	err := t.engine.Train(runCtx)
	metrics.RecordTrainerRun(time.Since(start), err)
	if err != nil {
		return err
	}

	t.log.Info().Dur("elapsed", time.Since(start)).Msg("training complete")
	return nil
}

// String names the service in supervision logs.
func (t *Trainer) String() string {
	return "trainer"
}
