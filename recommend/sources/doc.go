// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package sources implements the candidate sources the engine fans out
// to: graph shared-property matching, explicit preference matching,
// embedding nearest-neighbor similarity and item co-occurrence.
//
// Sources score on their own internal scale and attach human-readable
// reasons; the engine's aggregator applies the per-source merge weights.
// A source proposing nothing is a normal outcome. All sources are safe
// for concurrent Propose calls.
package sources
