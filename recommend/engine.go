// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kinograph/kinograph/internal/logging"
	"github.com/kinograph/kinograph/internal/metrics"
	"github.com/kinograph/kinograph/session"
)

// Engine coordinates candidate sources and produces final
// recommendations. It is safe for concurrent use.
type Engine struct {
	config Config
	deps   Deps
	log    zerolog.Logger

	srcMu   sync.RWMutex
	sources []registeredSource
}

// Deps carries the stores and resolvers the engine consumes. Graph,
// Vectors and Labels are required; Images and Selector may be nil.
type Deps struct {
	// Graph answers structured property queries and verification.
	Graph GraphStore

	// Vectors answers embedding similarity queries.
	Vectors VectorIndex

	// Labels resolves entity IDs to display titles.
	Labels LabelResolver

	// Images resolves entity IDs to poster identifiers; optional.
	Images ImageResolver

	// Selector reorders the ranked list for diversity; optional. When
	// nil the engine takes the top k ranked entries directly.
	Selector DiversitySelector

	// Log is the base logger; the engine adds its component field.
	Log zerolog.Logger
}

// registeredSource pairs a source with its merge weight.
type registeredSource struct {
	src    CandidateSource
	weight float64
}

// New creates a recommendation engine.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Graph == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if deps.Vectors == nil {
		return nil, fmt.Errorf("vector index is required")
	}
	if deps.Labels == nil {
		return nil, fmt.Errorf("label resolver is required")
	}

	return &Engine{
		config: cfg,
		deps:   deps,
		log:    deps.Log.With().Str("component", "recommend").Logger(),
	}, nil
}

// Register adds a candidate source with its merge weight. Registration
// order is merge order, so results are deterministic for a fixed setup.
func (e *Engine) Register(src CandidateSource, weight float64) {
	e.srcMu.Lock()
	defer e.srcMu.Unlock()

	e.sources = append(e.sources, registeredSource{src: src, weight: weight})
	e.log.Info().
		Str("source", src.Name()).
		Float64("weight", weight).
		Msg("registered candidate source")
}

// Recommend produces up to k recommendations for the session.
//
// Operational failures never abort the request: failing sources are
// skipped, a failing constraint filter fails open and a failing diversity
// selector falls back to the ranked order, each recorded as a degradation
// in the result metadata. Errors are returned only for programmer
// mistakes (nil session, non-positive k).
func (e *Engine) Recommend(ctx context.Context, sess *session.Session, k int) (*Result, error) {
	if sess == nil {
		return nil, ErrNilSession
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	start := time.Now()
	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.NewRequestID()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}
	logger := e.log.With().
		Str("request_id", requestID).
		Str("user_id", sess.UserID).
		Int("k", k).
		Logger()
	logger.Debug().
		Int("seeds", len(sess.Seeds)).
		Int("preferences", len(sess.Preferences)).
		Msg("processing recommendation request")

	if sess.Empty() {
		logger.Debug().Msg("session has no seeds or preferences")
		return e.emptyResult(requestID, EmptyNoSeeds, nil, nil, start), nil
	}

	pools, counts, degradations := e.collectCandidates(ctx, sess, logger)

	mergeStart := time.Now()
	merged := mergeCandidates(pools)
	metrics.RecordStage("merge", time.Since(mergeStart))
	if len(merged) == 0 {
		logger.Debug().Msg("no candidates from any source")
		return e.emptyResult(requestID, EmptyNoMatches, counts, degradations, start), nil
	}

	filterStart := time.Now()
	filtered, filterDegs := e.filterCandidates(ctx, merged, sess)
	metrics.RecordStage("filter", time.Since(filterStart))
	degradations = append(degradations, filterDegs...)
	if len(filtered) == 0 {
		logger.Debug().Msg("constraint filter removed every candidate")
		return e.emptyResult(requestID, EmptyNoMatches, counts, degradations, start), nil
	}

	rankStart := time.Now()
	ranked := e.rankCandidates(filtered)
	metrics.RecordStage("rank", time.Since(rankStart))

	diversityStart := time.Now()
	selected, diversityDegs := e.selectDiverse(ranked, k, logger)
	metrics.RecordStage("diversity", time.Since(diversityStart))
	degradations = append(degradations, diversityDegs...)

	recs := e.resolve(ctx, selected)

	result := &Result{
		Recommendations: recs,
		Meta: Meta{
			RequestID:    requestID,
			Status:       statusFor(degradations),
			Degradations: degradations,
			SourceCounts: counts,
			Elapsed:      time.Since(start),
		},
	}
	metrics.RecordRequest(string(result.Meta.Status), result.Meta.Elapsed)

	logger.Debug().
		Int("merged", len(merged)).
		Int("filtered", len(filtered)).
		Int("returned", len(recs)).
		Str("status", string(result.Meta.Status)).
		Dur("elapsed", result.Meta.Elapsed).
		Msg("recommendation complete")

	return result, nil
}

// sourceResult holds one source's outcome from the fan-out.
type sourceResult struct {
	pool sourcePool
	err  error
}

// collectCandidates fans out to every registered source concurrently.
// Results land in an indexed slice so merge order equals registration
// order regardless of completion order. A source error or panic skips
// that pool and records a degradation.
func (e *Engine) collectCandidates(ctx context.Context, sess *session.Session,
	logger zerolog.Logger) ([]sourcePool, map[string]int, []Degradation) {

	e.srcMu.RLock()
	sources := e.sources
	e.srcMu.RUnlock()

	start := time.Now()
	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, reg := range sources {
		wg.Add(1)
		go func(idx int, reg registeredSource) {
			defer wg.Done()
			results[idx] = e.runSource(ctx, reg, sess)
		}(i, reg)
	}

	wg.Wait()
	metrics.RecordStage("sources", time.Since(start))

	pools := make([]sourcePool, 0, len(results))
	counts := make(map[string]int, len(results))
	var degradations []Degradation

	for _, res := range results {
		name := res.pool.name
		if res.err != nil {
			logger.Warn().
				Str("source", name).
				Err(res.err).
				Msg("candidate source failed")
			metrics.RecordSourceResult(name, 0, res.err)
			degradations = append(degradations, Degradation{Stage: name, Reason: res.err.Error()})
			continue
		}

		counts[name] = len(res.pool.candidates)
		metrics.RecordSourceResult(name, len(res.pool.candidates), nil)
		if len(res.pool.candidates) == 0 {
			continue
		}
		pools = append(pools, res.pool)
	}

	return pools, counts, degradations
}

// runSource executes one source, converting panics into errors so a
// broken source cannot take down the request.
func (e *Engine) runSource(ctx context.Context, reg registeredSource,
	sess *session.Session) (res sourceResult) {

	res.pool = sourcePool{name: reg.src.Name(), weight: reg.weight}

	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("source panic: %v", r)
		}
	}()

	cands, err := reg.src.Propose(ctx, sess)
	if err != nil {
		res.err = err
		return res
	}

	res.pool.candidates = cands
	return res
}

// selectDiverse applies the diversity selector to the full ranked list.
// Selector failure falls back to the plain ranked order.
func (e *Engine) selectDiverse(ranked []RankedEntry, k int,
	logger zerolog.Logger) ([]RankedEntry, []Degradation) {

	if e.deps.Selector == nil {
		return truncate(ranked, k), nil
	}

	selected, err := e.deps.Selector.Select(ranked, k)
	if err != nil {
		logger.Warn().Err(err).Msg("diversity selection failed, using ranked order")
		metrics.DiversityFallbacks.Inc()
		return truncate(ranked, k), []Degradation{{Stage: "diversity", Reason: err.Error()}}
	}

	return selected, nil
}

// resolve turns ranked entries into presentable recommendations,
// attaching labels and optional image IDs. A missing label falls back to
// the entity ID so results stay usable with a sparse catalog.
func (e *Engine) resolve(ctx context.Context, entries []RankedEntry) []Recommendation {
	recs := make([]Recommendation, 0, len(entries))
	for _, entry := range entries {
		rec := Recommendation{
			ID:     entry.ID,
			Label:  entry.ID,
			Score:  entry.Score,
			Reason: entry.Reason,
		}
		if label, ok := e.deps.Labels.LabelOf(ctx, entry.ID); ok {
			rec.Label = label
		}
		if e.deps.Images != nil {
			if img, ok := e.deps.Images.ImageOf(ctx, entry.ID); ok {
				rec.ImageID = img
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

// Train forwards to every registered source that learns from interaction
// history. Individual failures do not stop the remaining sources; the
// joined error reports every failure.
func (e *Engine) Train(ctx context.Context) error {
	e.srcMu.RLock()
	sources := e.sources
	e.srcMu.RUnlock()

	var errs []error
	for _, reg := range sources {
		trainable, ok := reg.src.(Trainable)
		if !ok {
			continue
		}

		start := time.Now()
		if err := trainable.Train(ctx); err != nil {
			e.log.Error().
				Str("source", reg.src.Name()).
				Err(err).
				Msg("source training failed")
			errs = append(errs, fmt.Errorf("train %s: %w", reg.src.Name(), err))
			continue
		}

		e.log.Info().
			Str("source", reg.src.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("source training complete")
	}

	return errors.Join(errs...)
}

// emptyResult builds a terminal empty result. Empty outcomes are valid,
// not errors.
func (e *Engine) emptyResult(requestID string, reason EmptyReason,
	counts map[string]int, degradations []Degradation, start time.Time) *Result {

	result := &Result{
		Recommendations: []Recommendation{},
		Meta: Meta{
			RequestID:    requestID,
			Status:       statusFor(degradations),
			Degradations: degradations,
			Empty:        reason,
			SourceCounts: counts,
			Elapsed:      time.Since(start),
		},
	}
	metrics.RecordEmptyResult(string(reason))
	metrics.RecordRequest(string(result.Meta.Status), result.Meta.Elapsed)
	return result
}

// statusFor reports degraded when any stage was bridged.
func statusFor(degradations []Degradation) Status {
	if len(degradations) > 0 {
		return StatusDegraded
	}
	return StatusOK
}

// truncate returns at most the first k entries.
func truncate(ranked []RankedEntry, k int) []RankedEntry {
	if len(ranked) > k {
		return ranked[:k]
	}
	return ranked
}
