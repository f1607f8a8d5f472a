// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package session

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dgraph-io/badger/v4"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	store, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore() error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := newTestBadgerStore(t)

	s := New("alice")
	s.Apply(Update{
		Seeds:       []string{"Q603", "Q132351"},
		Preferences: map[string]string{"P136": "Q471839"},
		Constraints: &Constraints{
			Year:      &YearConstraint{Op: ">", Year: 2000},
			Language:  "Q1860",
			MinRating: 7.5,
		},
		Negations: []PropertyRef{{Property: "P136", Value: "Q200092"}},
	})
	s.AddRecommended([]string{"Q902"})
	s.AddTurn("user", "something scary but not horror")

	if err := store.Save(s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load("alice")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !reflect.DeepEqual(got.SeedList(), s.SeedList()) {
		t.Errorf("seeds = %v, want %v", got.SeedList(), s.SeedList())
	}
	if !reflect.DeepEqual(got.Preferences, s.Preferences) {
		t.Errorf("preferences = %v, want %v", got.Preferences, s.Preferences)
	}
	if got.Constraints.Year == nil || *got.Constraints.Year != *s.Constraints.Year {
		t.Errorf("year constraint = %+v, want %+v", got.Constraints.Year, s.Constraints.Year)
	}
	if got.Constraints.Language != "Q1860" || got.Constraints.MinRating != 7.5 {
		t.Errorf("constraints = %+v", got.Constraints)
	}
	if !reflect.DeepEqual(got.Negations, s.Negations) {
		t.Errorf("negations = %v, want %v", got.Negations, s.Negations)
	}
	if _, ok := got.Recommended["Q902"]; !ok {
		t.Error("expected recommended movie persisted")
	}
	if len(got.History) != 1 || got.History[0].Text != "something scary but not horror" {
		t.Errorf("history = %v", got.History)
	}
}

func TestBadgerStoreNotFound(t *testing.T) {
	store := newTestBadgerStore(t)

	_, err := store.Load("nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStoreDelete(t *testing.T) {
	store := newTestBadgerStore(t)

	if err := store.Save(New("alice")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Delete("alice"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Load("alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an absent session is not an error.
	if err := store.Delete("alice"); err != nil {
		t.Errorf("Delete() on absent session: %v", err)
	}
}

func TestBadgerStoreCorruptRecord(t *testing.T) {
	store := newTestBadgerStore(t)

	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKeyPrefix+"alice"), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("seeding corrupt record: %v", err)
	}

	if _, err := store.Load("alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected corrupt record treated as not found, got %v", err)
	}
}

func TestBadgerStoreUnknownVersion(t *testing.T) {
	store := newTestBadgerStore(t)

	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKeyPrefix+"alice"), []byte(`{"v":99,"user_id":"alice"}`))
	})
	if err != nil {
		t.Fatalf("seeding versioned record: %v", err)
	}

	if _, err := store.Load("alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected unknown version treated as not found, got %v", err)
	}
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore() error: %v", err)
	}
	s := New("alice")
	s.Apply(Update{Seeds: []string{"Q603"}})
	if err := store.Save(s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load("alice")
	if err != nil {
		t.Fatalf("Load() after reopen error: %v", err)
	}
	if _, ok := got.Seeds["Q603"]; !ok {
		t.Error("expected session to survive restart")
	}
}

func TestNewStoreFactory(t *testing.T) {
	mem, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") error: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("expected MemoryStore for empty path, got %T", mem)
	}

	persistent, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore(dir) error: %v", err)
	}
	defer persistent.Close()
	if _, ok := persistent.(*BadgerStore); !ok {
		t.Errorf("expected BadgerStore for path, got %T", persistent)
	}
}
