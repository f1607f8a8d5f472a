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

	"github.com/kinograph/kinograph/internal/logging"
	"github.com/kinograph/kinograph/internal/metrics"
	"github.com/kinograph/kinograph/vector"
)

// LoadEmbeddings streams every stored embedding into the vector index
// and returns how many were loaded. Rows that fail to decode or to
// index (wrong dimension, zero vector) are logged and skipped; a
// handful of bad vectors should not take similarity search down with
// them.
func (db *DB) LoadEmbeddings(ctx context.Context, idx *vector.Index) (loaded int, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogQuery("load_embeddings", time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, "SELECT movie_id, vec FROM embeddings")
	if err != nil {
		return 0, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	skipped := 0
	for rows.Next() {
		var movieID, raw string
		if err = rows.Scan(&movieID, &raw); err != nil {
			return loaded, fmt.Errorf("scan embedding row: %w", err)
		}

		var vec []float32
		if derr := json.Unmarshal([]byte(raw), &vec); derr != nil {
			logging.Warn().Err(derr).Str("movie_id", movieID).Msg("skipping undecodable embedding")
			skipped++
			continue
		}
		if aerr := idx.Add(movieID, vec); aerr != nil {
			logging.Warn().Err(aerr).Str("movie_id", movieID).Msg("skipping unusable embedding")
			skipped++
			continue
		}
		loaded++
	}
	if err = rows.Err(); err != nil {
		return loaded, fmt.Errorf("iterate embedding rows: %w", err)
	}

	logging.Info().Int("loaded", loaded).Int("skipped", skipped).
		Msg("embeddings loaded into vector index")
	return loaded, nil
}
