// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import "errors"

var (
	// ErrNoEmbedding indicates the movie has no vector in the index.
	ErrNoEmbedding = errors.New("no embedding for movie")

	// ErrNilSession indicates Recommend was called without a session.
	ErrNilSession = errors.New("session cannot be nil")

	// ErrInvalidK indicates a non-positive recommendation count.
	ErrInvalidK = errors.New("k must be positive")
)
