// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package session

import "errors"

// ErrNotFound is returned by a Store when no session exists for a user.
var ErrNotFound = errors.New("session not found")

// Store persists sessions between process restarts. Implementations must
// be safe for concurrent use and must not alias sessions handed to Save
// or returned from Load.
type Store interface {
	Load(userID string) (*Session, error)
	Save(s *Session) error
	Delete(userID string) error
	Close() error
}

// NewStore creates a session store: a BadgerDB-backed store when path is
// non-empty, otherwise an in-memory store.
func NewStore(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewBadgerStore(path)
}
