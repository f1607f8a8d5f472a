// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kinograph/kinograph/internal/metrics"
	"github.com/kinograph/kinograph/session"
)

// BreakerGraphStore wraps a GraphStore with a circuit breaker so a
// struggling catalog fails fast instead of stalling every request.
// When the circuit is open, calls return the breaker error immediately
// and the pipeline degrades the same way it does for a direct store
// failure: sources are skipped, the constraint filter fails open.
//
// The breaker uses real time for its interval and timeout; tests should
// exercise the wrapped store directly.
type BreakerGraphStore struct {
	store GraphStore
	cb    *gobreaker.CircuitBreaker[any]
	name  string
	log   zerolog.Logger
}

// NewBreakerGraphStore wraps store with a circuit breaker.
// The breaker allows 3 requests in half-open state, resets counts every
// minute while closed, waits 2 minutes before probing an open circuit,
// and opens at a 60% failure rate over at least 10 requests.
func NewBreakerGraphStore(store GraphStore, log zerolog.Logger) *BreakerGraphStore {
	const cbName = "catalog"
	logger := log.With().Str("component", "breaker").Logger()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logger.Warn().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerGraphStore{store: store, cb: cb, name: cbName, log: logger}
}

// execute runs one store call through the breaker and records metrics.
func (b *BreakerGraphStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castBreakerResult type-asserts the breaker result.
func castBreakerResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// SharedProperty implements GraphStore with breaker protection.
func (b *BreakerGraphStore) SharedProperty(ctx context.Context, seeds []string, property string,
	cons session.Constraints, negs []session.PropertyRef,
	exclude map[string]struct{}, limit int) ([]PropertyMatch, error) {

	return castBreakerResult[[]PropertyMatch](b.execute(func() (any, error) {
		return b.store.SharedProperty(ctx, seeds, property, cons, negs, exclude, limit)
	}))
}

// MatchingPreferences implements GraphStore with breaker protection.
func (b *BreakerGraphStore) MatchingPreferences(ctx context.Context, prefs map[string]string,
	cons session.Constraints, negs []session.PropertyRef,
	exclude map[string]struct{}, limit int) ([]PropertyMatch, error) {

	return castBreakerResult[[]PropertyMatch](b.execute(func() (any, error) {
		return b.store.MatchingPreferences(ctx, prefs, cons, negs, exclude, limit)
	}))
}

// VerifyMembership implements GraphStore with breaker protection.
func (b *BreakerGraphStore) VerifyMembership(ctx context.Context, ids []string,
	cons session.Constraints, negs []session.PropertyRef) (map[string]struct{}, error) {

	return castBreakerResult[map[string]struct{}](b.execute(func() (any, error) {
		return b.store.VerifyMembership(ctx, ids, cons, negs)
	}))
}

// breakerStateValue converts breaker state to a gauge value.
func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// breakerStateString converts breaker state to a label value.
func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
