// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/kinograph/kinograph/internal/metrics"
)

// Movie is one catalog row for import. Zero Year, Rating, Language and
// ImageID are stored as NULL (unknown).
type Movie struct {
	ID       string
	Label    string
	Year     int
	Language string
	Rating   float64
	ImageID  string
}

// Property is one graph edge for import: movie --property--> value.
type Property struct {
	MovieID    string
	Property   string
	Value      string
	ValueLabel string
}

// Interaction is one watch event for import. The event timestamp is
// assigned on insert.
type Interaction struct {
	UserID  string
	MovieID string
}

// Embedding is one movie vector for import.
type Embedding struct {
	MovieID string
	Vector  []float32
}

// ImportMovies inserts or replaces catalog rows in one transaction.
func (db *DB) ImportMovies(ctx context.Context, movies []Movie) (err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("import_movies", time.Since(start), err) }()

	if len(movies) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin movie import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO movies (id, label, year, language, rating, image_id) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare movie insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range movies {
		if m.ID == "" {
			return fmt.Errorf("movie with empty id")
		}
		label := m.Label
		if label == "" {
			label = m.ID
		}
		if _, err = stmt.ExecContext(ctx, m.ID, label,
			nullInt(m.Year), nullString(m.Language), nullFloat(m.Rating), nullString(m.ImageID)); err != nil {
			return fmt.Errorf("insert movie %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// ImportProperties inserts graph edges in one transaction.
func (db *DB) ImportProperties(ctx context.Context, props []Property) (err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("import_properties", time.Since(start), err) }()

	if len(props) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin property import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO movie_properties (movie_id, property, value, value_label) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare property insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range props {
		if p.MovieID == "" || p.Property == "" || p.Value == "" {
			return fmt.Errorf("property row missing movie, property or value")
		}
		if _, err = stmt.ExecContext(ctx, p.MovieID, p.Property, p.Value, nullString(p.ValueLabel)); err != nil {
			return fmt.Errorf("insert property %s of %s: %w", p.Property, p.MovieID, err)
		}
	}
	return tx.Commit()
}

// ImportInteractions inserts watch events in one transaction.
func (db *DB) ImportInteractions(ctx context.Context, inters []Interaction) (err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("import_interactions", time.Since(start), err) }()

	if len(inters) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin interaction import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO interactions (user_id, movie_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare interaction insert: %w", err)
	}
	defer stmt.Close()

	for _, in := range inters {
		if in.UserID == "" || in.MovieID == "" {
			return fmt.Errorf("interaction row missing user or movie")
		}
		if _, err = stmt.ExecContext(ctx, in.UserID, in.MovieID); err != nil {
			return fmt.Errorf("insert interaction %s/%s: %w", in.UserID, in.MovieID, err)
		}
	}
	return tx.Commit()
}

// ImportEmbeddings inserts or replaces movie vectors in one
// transaction. Vectors are stored as JSON arrays.
func (db *DB) ImportEmbeddings(ctx context.Context, embs []Embedding) (err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("import_embeddings", time.Since(start), err) }()

	if len(embs) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin embedding import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO embeddings (movie_id, vec) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare embedding insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range embs {
		if e.MovieID == "" {
			return fmt.Errorf("embedding with empty movie id")
		}
		if len(e.Vector) == 0 {
			return fmt.Errorf("embedding for %s is empty", e.MovieID)
		}
		raw, merr := json.Marshal(e.Vector)
		if merr != nil {
			return fmt.Errorf("marshal embedding for %s: %w", e.MovieID, merr)
		}
		if _, err = stmt.ExecContext(ctx, e.MovieID, string(raw)); err != nil {
			return fmt.Errorf("insert embedding %s: %w", e.MovieID, err)
		}
	}
	return tx.Commit()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

func nullFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}
