// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package session

import "sync"

// MemoryStore keeps sessions in memory. It is the default store and the
// one tests use; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Load returns a deep copy of the stored session, or ErrNotFound.
func (m *MemoryStore) Load(userID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Save stores a deep copy of the session.
func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.UserID] = s.Clone()
	return nil
}

// Delete removes the session for the given user. Deleting an absent
// session is not an error.
func (m *MemoryStore) Delete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
