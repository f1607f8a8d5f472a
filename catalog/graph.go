// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kinograph/kinograph/internal/metrics"
	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/session"
)

// SharedProperty finds movies sharing values of one property with any of
// the seeds. A movie appears once per distinct shared value, so a film
// sharing two genres with the seed set contributes two rows. Rows are
// ordered by how many seeds share the value, descending, and capped at
// limit. Seeds themselves and excluded IDs never appear.
func (db *DB) SharedProperty(ctx context.Context, seeds []string, property string,
	cons session.Constraints, negs []session.PropertyRef,
	exclude map[string]struct{}, limit int) (matches []recommend.PropertyMatch, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("shared_property", time.Since(start), err) }()

	if len(seeds) == 0 || limit <= 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT mp.movie_id,
		       COALESCE(mp.value_label, '') AS value_label,
		       MAX(COALESCE(m.rating, 0)) AS rating,
		       COUNT(DISTINCT sp.movie_id) AS shared
		FROM movie_properties mp
		JOIN movie_properties sp ON sp.property = mp.property AND sp.value = mp.value
		JOIN movies m ON m.id = mp.movie_id
		WHERE mp.property = ?
		  AND sp.movie_id IN (`)
	sb.WriteString(placeholders(len(seeds)))
	sb.WriteString(")")

	args := make([]interface{}, 0, 2+len(seeds)+len(exclude))
	args = append(args, property)
	args = appendIDs(args, seeds)

	if excludeIDs := sortedIDs(exclude); len(excludeIDs) > 0 {
		sb.WriteString(" AND mp.movie_id NOT IN (")
		sb.WriteString(placeholders(len(excludeIDs)))
		sb.WriteString(")")
		args = appendIDs(args, excludeIDs)
	}

	clauses, cargs, err := constraintClauses("m", cons, negs)
	if err != nil {
		return nil, err
	}
	for _, clause := range clauses {
		sb.WriteString(" AND ")
		sb.WriteString(clause)
	}
	args = append(args, cargs...)

	sb.WriteString(`
		GROUP BY mp.movie_id, COALESCE(mp.value_label, '')
		ORDER BY shared DESC, mp.movie_id ASC, value_label ASC
		LIMIT ?`)
	args = append(args, limit)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query shared property %s: %w", property, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m recommend.PropertyMatch
		if err = rows.Scan(&m.ID, &m.ValueLabel, &m.Rating, &m.Shared); err != nil {
			return nil, fmt.Errorf("scan shared property row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared property rows: %w", err)
	}
	return matches, nil
}

// MatchingPreferences finds movies carrying every given property=value
// pair at once, best rated first, capped at limit.
func (db *DB) MatchingPreferences(ctx context.Context, prefs map[string]string,
	cons session.Constraints, negs []session.PropertyRef,
	exclude map[string]struct{}, limit int) (matches []recommend.PropertyMatch, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("matching_preferences", time.Since(start), err) }()

	if len(prefs) == 0 || limit <= 0 {
		return nil, nil
	}

	properties := make([]string, 0, len(prefs))
	for p := range prefs {
		properties = append(properties, p)
	}
	sort.Strings(properties)

	var sb strings.Builder
	sb.WriteString(`
		SELECT m.id, COALESCE(m.rating, 0) AS rating
		FROM movies m
		WHERE 1=1`)

	var args []interface{}
	for _, p := range properties {
		sb.WriteString(`
		  AND EXISTS (SELECT 1 FROM movie_properties p WHERE p.movie_id = m.id AND p.property = ? AND p.value = ?)`)
		args = append(args, p, prefs[p])
	}

	if excludeIDs := sortedIDs(exclude); len(excludeIDs) > 0 {
		sb.WriteString(" AND m.id NOT IN (")
		sb.WriteString(placeholders(len(excludeIDs)))
		sb.WriteString(")")
		args = appendIDs(args, excludeIDs)
	}

	clauses, cargs, err := constraintClauses("m", cons, negs)
	if err != nil {
		return nil, err
	}
	for _, clause := range clauses {
		sb.WriteString(" AND ")
		sb.WriteString(clause)
	}
	args = append(args, cargs...)

	sb.WriteString(`
		ORDER BY rating DESC, m.id ASC
		LIMIT ?`)
	args = append(args, limit)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query matching preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m recommend.PropertyMatch
		if err = rows.Scan(&m.ID, &m.Rating); err != nil {
			return nil, fmt.Errorf("scan preference row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preference rows: %w", err)
	}
	return matches, nil
}

// VerifyMembership returns the subset of ids that exist in the catalog,
// satisfy all constraints and violate no negation, in one batched query.
func (db *DB) VerifyMembership(ctx context.Context, ids []string,
	cons session.Constraints, negs []session.PropertyRef) (verified map[string]struct{}, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("verify_membership", time.Since(start), err) }()

	verified = make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return verified, nil
	}

	var sb strings.Builder
	sb.WriteString("SELECT m.id FROM movies m WHERE m.id IN (")
	sb.WriteString(placeholders(len(ids)))
	sb.WriteString(")")

	args := make([]interface{}, 0, len(ids))
	args = appendIDs(args, ids)

	clauses, cargs, err := constraintClauses("m", cons, negs)
	if err != nil {
		return nil, err
	}
	for _, clause := range clauses {
		sb.WriteString(" AND ")
		sb.WriteString(clause)
	}
	args = append(args, cargs...)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query membership: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan membership row: %w", err)
		}
		verified[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate membership rows: %w", err)
	}
	return verified, nil
}

// Ensure DB satisfies the engine-facing interfaces.
var (
	_ recommend.GraphStore     = (*DB)(nil)
	_ recommend.LabelResolver  = (*DB)(nil)
	_ recommend.ImageResolver  = (*DB)(nil)
	_ recommend.RatingProvider = (*DB)(nil)
	_ recommend.Interactions   = (*DB)(nil)
)
