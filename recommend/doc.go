// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package recommend implements the conversational recommendation core.
//
// # Architecture
//
// Each request runs a fixed pipeline over the current session state:
//
//   - Candidate sources propose scored movies in parallel (graph
//     properties, explicit preferences, embedding similarity,
//     co-occurrence).
//   - The aggregator merges pools with per-source weights into one
//     candidate set.
//   - The constraint filter re-verifies candidates against the session's
//     year/language/rating constraints and negations in one batched
//     graph query.
//   - The ranker adds a rating-quality bonus and orders deterministically.
//   - A diversity selector (MMR) reorders the top of the list.
//
// # Degradation
//
// Operational failures never abort a request. A failing source is
// skipped, a failing filter fails open, a failing selector falls back to
// the ranked order. Every bridged failure lands in Meta.Degradations and
// flips Meta.Status to degraded, so callers can tell a clean result from
// a partial one. Empty results are valid terminals with Meta.Empty set,
// not errors.
//
// # Usage
//
//	engine, err := recommend.New(recommend.DefaultConfig(), recommend.Deps{
//	    Graph:    cat,
//	    Vectors:  idx,
//	    Labels:   cat,
//	    Selector: diversity.NewMMR(idx, 0.7),
//	    Log:      logger,
//	})
//
//	engine.Register(sources.NewGraph(cat, cfg), cfg.Weights.Graph)
//	engine.Register(sources.NewEmbedding(idx, cfg), cfg.Weights.Embedding)
//
//	result, err := engine.Recommend(ctx, sess, 5)
//
// # Thread Safety
//
// The engine is safe for concurrent use. Source registration normally
// happens once at startup; Recommend and Train may run concurrently with
// each other.
package recommend
