// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/internal/logging"
)

// Manager serializes access to each user's session and writes every
// mutation through to the store. Two concurrent requests for the same
// user run one after the other; requests for different users only share
// the short lock-map lookup.
type Manager struct {
	store Store
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		log:   logging.WithComponent("session"),
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lockFor(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// With runs fn with exclusive access to the user's session and saves the
// session afterwards. A missing session is created on first use; a store
// that fails to load falls back to a fresh session so the conversation
// can continue, but a failed save is returned because silently losing
// accumulated state would corrupt the next turn.
func (m *Manager) With(userID string, fn func(*Session) error) error {
	l := m.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	sess, err := m.store.Load(userID)
	switch {
	case errors.Is(err, ErrNotFound):
		m.log.Info().Str("user_id", userID).Msg("creating new session")
		sess = New(userID)
	case err != nil:
		m.log.Warn().Err(err).Str("user_id", userID).
			Msg("session load failed, starting fresh")
		sess = New(userID)
	}

	if err := fn(sess); err != nil {
		return err
	}

	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Clear resets the user's session state, preserving the user ID.
func (m *Manager) Clear(userID string) error {
	return m.With(userID, func(s *Session) error {
		s.Clear()
		m.log.Info().Str("user_id", userID).Msg("session cleared")
		return nil
	})
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
