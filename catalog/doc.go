// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package catalog is the movie data layer: an embedded DuckDB database
// behind the graph store, resolver and interaction interfaces the
// recommendation engine consumes.
//
// # Overview
//
// The catalog holds four tables:
//
//   - movies: one row per film (label, year, language, rating, image)
//   - movie_properties: graph edges (movie --property--> value), e.g.
//     Q603 --P136--> Q471839 "Science Fiction"
//   - interactions: watch events per user, feeding collaborative
//     training
//   - embeddings: JSON-encoded movie vectors, loaded into the in-memory
//     vector index at startup
//
// Membership in movies doubles as the film type-check: only films are
// imported, so a row's existence answers "is this a movie".
//
// # Query Shape
//
// Candidate queries (SharedProperty, MatchingPreferences) push
// constraint filtering, negation checks, exclusions, ordering and
// LIMIT into SQL so the engine never pages through unusable rows.
// VerifyMembership batch-checks one ID list in a single query.
//
// # Concurrency
//
// All exported methods are safe for concurrent use. Fixed-shape lookups
// are served from a lazily built prepared-statement cache; dynamic
// queries go through the pooled connection directly.
package catalog
