// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package vector provides an in-memory movie embedding index with exact
// cosine similarity search.
package vector

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/kinograph/kinograph/recommend"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrZeroVector        = errors.New("zero vector")
)

// Index holds normalized movie embeddings keyed by entity ID.
// Search is brute force; catalogs in the tens of thousands of movies
// stay well under a millisecond per query.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors map[string][]float32
}

// NewIndex creates an index for vectors of the given dimension.
// A dim of 0 adopts the dimension of the first vector added.
func NewIndex(dim int) *Index {
	return &Index{
		dim:     dim,
		vectors: make(map[string][]float32),
	}
}

// Add inserts or replaces the embedding for id. Vectors are normalized
// to unit length on the way in, so cosine similarity later reduces to a
// dot product.
func (x *Index) Add(id string, vec []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim == 0 {
		x.dim = len(vec)
	}
	if len(vec) != x.dim {
		return ErrDimensionMismatch
	}

	normalized, ok := normalize(vec)
	if !ok {
		return ErrZeroVector
	}
	x.vectors[id] = normalized
	return nil
}

// Remove deletes the embedding for id, if present.
func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.vectors, id)
}

// Len returns the number of indexed embeddings.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dim returns the vector dimension, or 0 when the index is empty and was
// created without one.
func (x *Index) Dim() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// NearestNeighbors returns the k most similar movies to id, excluding id
// itself, ordered by descending similarity with ties broken by ascending
// entity ID. A movie without an embedding yields ErrNoEmbedding.
func (x *Index) NearestNeighbors(id string, k int) ([]recommend.Neighbor, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	query, ok := x.vectors[id]
	if !ok {
		return nil, recommend.ErrNoEmbedding
	}
	if k <= 0 {
		return nil, nil
	}

	results := make([]recommend.Neighbor, 0, len(x.vectors)-1)
	for other, vec := range x.vectors {
		if other == id {
			continue
		}
		results = append(results, recommend.Neighbor{
			ID:    other,
			Score: dot(query, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// EmbeddingOf returns the normalized embedding for id. The returned
// slice is shared; callers must not mutate it.
func (x *Index) EmbeddingOf(id string) ([]float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	vec, ok := x.vectors[id]
	return vec, ok
}

// CosineSimilarity computes cosine similarity between two vectors,
// in [-1, 1]. Mismatched or empty vectors score 0.
func (x *Index) CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProd, normA, normB float64
	for i := range a {
		dotProd += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProd / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalize returns a unit-length copy of vec, or ok=false for a zero
// vector.
func normalize(vec []float32) ([]float32, bool) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return nil, false
	}

	norm := math.Sqrt(sumSquares)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out, true
}

// dot computes the dot product; for normalized vectors this is cosine
// similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
