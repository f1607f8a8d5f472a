// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package sources

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/recommend"
	"github.com/kinograph/kinograph/session"
)

// collaborativeReason explains co-occurrence candidates.
const collaborativeReason = "fans of the same movies watched it"

// Collaborative proposes movies that co-occur with the seeds in user
// interaction histories. The model is a per-movie top-N neighbor list
// with cosine-normalized co-occurrence similarity:
//
//	sim(a, b) = co(a, b) / sqrt(count(a) * count(b))
//
// where co(a, b) counts users who interacted with both movies and
// count(x) counts users who interacted with x at all.
//
// Training swaps the model atomically under a write lock, so Propose
// keeps serving the previous model while a rebuild runs. An untrained
// source proposes nothing.
type Collaborative struct {
	interactions recommend.Interactions
	maxNeighbors int
	log          zerolog.Logger

	mu    sync.RWMutex
	model map[string][]scoredNeighbor
}

// scoredNeighbor is one co-occurrence neighbor of a movie.
type scoredNeighbor struct {
	id  string
	sim float64
}

// NewCollaborative creates the collaborative source. maxNeighbors caps
// the stored neighbors per movie.
func NewCollaborative(interactions recommend.Interactions, maxNeighbors int, log zerolog.Logger) *Collaborative {
	if maxNeighbors < 1 {
		maxNeighbors = 50
	}
	return &Collaborative{
		interactions: interactions,
		maxNeighbors: maxNeighbors,
		log:          log.With().Str("source", "collaborative").Logger(),
	}
}

// Name implements recommend.CandidateSource.
func (c *Collaborative) Name() string { return "collaborative" }

// Train rebuilds the co-occurrence model from interaction history. An
// empty interaction set leaves the previous model in place so a failed
// or not-yet-populated catalog cannot wipe a working model.
func (c *Collaborative) Train(ctx context.Context) error {
	byUser, err := c.interactions.ByUser(ctx)
	if err != nil {
		return err
	}
	if len(byUser) == 0 {
		c.log.Debug().Msg("no interactions, keeping previous model")
		return nil
	}

	counts := make(map[string]int)
	co := make(map[string]map[string]int)

	for _, movies := range byUser {
		if err := ctx.Err(); err != nil {
			return err
		}

		unique := uniqueSorted(movies)
		for _, m := range unique {
			counts[m]++
		}
		for i := 0; i < len(unique); i++ {
			for j := i + 1; j < len(unique); j++ {
				a, b := unique[i], unique[j]
				if co[a] == nil {
					co[a] = make(map[string]int)
				}
				if co[b] == nil {
					co[b] = make(map[string]int)
				}
				co[a][b]++
				co[b][a]++
			}
		}
	}

	model := make(map[string][]scoredNeighbor, len(co))
	for a, partners := range co {
		neighbors := make([]scoredNeighbor, 0, len(partners))
		for b, n := range partners {
			denom := math.Sqrt(float64(counts[a]) * float64(counts[b]))
			if denom == 0 {
				continue
			}
			neighbors = append(neighbors, scoredNeighbor{id: b, sim: float64(n) / denom})
		}

		sort.Slice(neighbors, func(i, j int) bool {
			if neighbors[i].sim != neighbors[j].sim {
				return neighbors[i].sim > neighbors[j].sim
			}
			return neighbors[i].id < neighbors[j].id
		})
		if len(neighbors) > c.maxNeighbors {
			neighbors = neighbors[:c.maxNeighbors]
		}
		model[a] = neighbors
	}

	c.mu.Lock()
	c.model = model
	c.mu.Unlock()

	c.log.Info().
		Int("movies", len(model)).
		Int("users", len(byUser)).
		Msg("collaborative model trained")
	return nil
}

// Propose implements recommend.CandidateSource. Scores are normalized by
// the pool maximum so the source weight scales comparably with graph
// scores regardless of catalog density.
func (c *Collaborative) Propose(ctx context.Context, sess *session.Session) ([]recommend.Candidate, error) {
	if len(sess.Seeds) == 0 {
		return nil, nil
	}

	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()
	if len(model) == 0 {
		return nil, nil
	}

	exclude := sess.ExcludeSet()
	acc := make(map[string]*recommend.Candidate)
	var order []string

	for _, seed := range sess.SeedList() {
		for _, n := range model[seed] {
			if _, skip := exclude[n.id]; skip {
				continue
			}

			cand, ok := acc[n.id]
			if !ok {
				cand = &recommend.Candidate{ID: n.id}
				acc[n.id] = cand
				order = append(order, n.id)
			}
			cand.Score += n.sim
			cand.AddReason(collaborativeReason)
		}
	}
	if len(acc) == 0 {
		return nil, nil
	}

	var maxScore float64
	for _, cand := range acc {
		if cand.Score > maxScore {
			maxScore = cand.Score
		}
	}

	out := make([]recommend.Candidate, 0, len(acc))
	for _, id := range order {
		cand := *acc[id]
		if maxScore > 0 {
			cand.Score /= maxScore
		}
		out = append(out, cand)
	}
	return out, nil
}

// uniqueSorted deduplicates and sorts a movie ID list.
func uniqueSorted(ids []string) []string {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

var (
	_ recommend.CandidateSource = (*Collaborative)(nil)
	_ recommend.Trainable       = (*Collaborative)(nil)
)
