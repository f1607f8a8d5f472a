// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/kinograph/kinograph/internal/logging"
	"github.com/kinograph/kinograph/internal/metrics"
)

const sessionKeyPrefix = "session:"

// recordVersion is bumped when the persisted layout changes; decode
// treats unknown versions as corrupt.
const recordVersion = 1

// BadgerStore persists sessions in BadgerDB so conversations survive
// restarts. Records are JSON with a version field; a corrupt or
// unreadable record is treated as not-found rather than poisoning the
// user's conversation forever.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logging is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load retrieves the session for a user, or ErrNotFound.
func (s *BadgerStore) Load(userID string) (*Session, error) {
	var sess *Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			decoded, derr := decodeRecord(val)
			if derr != nil {
				logging.Warn().Err(derr).Str("user_id", userID).
					Msg("discarding corrupt session record")
				return ErrNotFound
			}
			sess = decoded
			return nil
		})
	})

	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordSessionStoreOp("load", err)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionStoreOp("load", nil)
	return sess, nil
}

// Save writes the session, replacing any previous record.
func (s *BadgerStore) Save(sess *Session) error {
	data, err := encodeRecord(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKeyPrefix+sess.UserID), data)
	})
	metrics.RecordSessionStoreOp("save", err)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session for the given user. Deleting an absent
// session is not an error.
func (s *BadgerStore) Delete(userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKeyPrefix + userID))
	})
	metrics.RecordSessionStoreOp("delete", err)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// sessionRecord is the persisted layout. It is decoupled from Session so
// in-memory changes do not silently break stored conversations.
type sessionRecord struct {
	V           int               `json:"v"`
	UserID      string            `json:"user_id"`
	Seeds       []string          `json:"seeds,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
	Year        *YearConstraint   `json:"year,omitempty"`
	YearRange   *YearRange        `json:"year_range,omitempty"`
	Language    string            `json:"language,omitempty"`
	MinRating   float64           `json:"min_rating,omitempty"`
	Negations   []PropertyRef     `json:"negations,omitempty"`
	Recommended []string          `json:"recommended,omitempty"`
	History     []Turn            `json:"history,omitempty"`
}

func encodeRecord(s *Session) ([]byte, error) {
	rec := sessionRecord{
		V:           recordVersion,
		UserID:      s.UserID,
		Seeds:       setToSlice(s.Seeds),
		Preferences: s.Preferences,
		Year:        s.Constraints.Year,
		YearRange:   s.Constraints.YearRange,
		Language:    s.Constraints.Language,
		MinRating:   s.Constraints.MinRating,
		Negations:   s.Negations,
		Recommended: setToSlice(s.Recommended),
		History:     s.History,
	}
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (*Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	if rec.V != recordVersion {
		return nil, fmt.Errorf("unsupported session record version %d", rec.V)
	}
	if rec.UserID == "" {
		return nil, errors.New("session record missing user id")
	}

	sess := New(rec.UserID)
	for _, id := range rec.Seeds {
		sess.Seeds[id] = struct{}{}
	}
	for k, v := range rec.Preferences {
		sess.Preferences[k] = v
	}
	sess.Constraints = Constraints{
		Year:      rec.Year,
		YearRange: rec.YearRange,
		Language:  rec.Language,
		MinRating: rec.MinRating,
	}
	sess.Negations = rec.Negations
	for _, id := range rec.Recommended {
		sess.Recommended[id] = struct{}{}
	}
	sess.History = rec.History
	return sess, nil
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
