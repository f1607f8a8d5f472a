// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package supervisor runs Kinograph's background services under a
// suture supervision tree.
//
// The tree is deliberately flat: Kinograph has no transport layer, so
// the only long-running work is the periodic trainer. Supervisor events
// (service failures, restarts, backoff) are bridged into the zerolog
// logger through sutureslog.
//
// # Usage
//
//	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
//	tree.Add(supervisor.NewTrainer(engine, trainerCfg, logger))
//	err := tree.Serve(ctx)
//
// Serve blocks until the context is canceled. Services that return an
// error are restarted with the configured backoff.
package supervisor
