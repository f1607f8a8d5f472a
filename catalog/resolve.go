// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kinograph/kinograph/internal/logging"
	"github.com/kinograph/kinograph/internal/metrics"
)

// LabelOf returns the display title for a movie, or ok=false when the
// movie is unknown. Lookup failures log and report not-found; the
// caller falls back to the entity ID.
func (db *DB) LabelOf(ctx context.Context, id string) (string, bool) {
	label, ok := db.lookupString(ctx, "label", "SELECT label FROM movies WHERE id = ?", id)
	return label, ok
}

// ImageOf returns the poster/still identifier for a movie, or ok=false.
func (db *DB) ImageOf(ctx context.Context, id string) (string, bool) {
	image, ok := db.lookupString(ctx, "image", "SELECT image_id FROM movies WHERE id = ? AND image_id IS NOT NULL", id)
	return image, ok
}

// RatingOf returns the provider-scale rating (0-10) for a movie, or
// ok=false when the movie is unknown or unrated.
func (db *DB) RatingOf(ctx context.Context, id string) (float64, bool) {
	start := time.Now()

	stmt, err := db.stmt(ctx, "SELECT rating FROM movies WHERE id = ? AND rating IS NOT NULL")
	if err != nil {
		metrics.RecordCatalogQuery("rating", time.Since(start), err)
		logging.Warn().Err(err).Str("movie_id", id).Msg("rating lookup failed")
		return 0, false
	}

	var rating float64
	err = stmt.QueryRowContext(ctx, id).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCatalogQuery("rating", time.Since(start), nil)
		return 0, false
	}
	if err != nil {
		metrics.RecordCatalogQuery("rating", time.Since(start), err)
		logging.Warn().Err(err).Str("movie_id", id).Msg("rating lookup failed")
		return 0, false
	}

	metrics.RecordCatalogQuery("rating", time.Since(start), nil)
	return rating, true
}

// lookupString runs a cached single-string lookup keyed by movie ID.
func (db *DB) lookupString(ctx context.Context, operation, query, id string) (string, bool) {
	start := time.Now()

	stmt, err := db.stmt(ctx, query)
	if err != nil {
		metrics.RecordCatalogQuery(operation, time.Since(start), err)
		logging.Warn().Err(err).Str("movie_id", id).Str("operation", operation).
			Msg("catalog lookup failed")
		return "", false
	}

	var value string
	err = stmt.QueryRowContext(ctx, id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCatalogQuery(operation, time.Since(start), nil)
		return "", false
	}
	if err != nil {
		metrics.RecordCatalogQuery(operation, time.Since(start), err)
		logging.Warn().Err(err).Str("movie_id", id).Str("operation", operation).
			Msg("catalog lookup failed")
		return "", false
	}

	metrics.RecordCatalogQuery(operation, time.Since(start), nil)
	return value, true
}

// ByUser groups interacted movie IDs per user for collaborative
// training, in interaction order.
func (db *DB) ByUser(ctx context.Context) (history map[string][]string, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("interactions_by_user", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, movie_id FROM interactions ORDER BY user_id, \"at\", movie_id")
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	history = make(map[string][]string)
	for rows.Next() {
		var userID, movieID string
		if err = rows.Scan(&userID, &movieID); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		history[userID] = append(history[userID], movieID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}
	return history, nil
}
