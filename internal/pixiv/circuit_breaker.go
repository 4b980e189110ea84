// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package pixiv

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/metrics"
	"github.com/Roast-2007/morfonica/internal/models"
)

// CircuitBreakerClient wraps an API with the circuit breaker pattern so a
// slow or failing Pixiv API degrades commands fast instead of piling up
// blocked requests.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should exercise the wrapped client directly.
type CircuitBreakerClient struct {
	inner API
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// Ensure CircuitBreakerClient implements API.
var _ API = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps inner with a circuit breaker:
//   - max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(inner API) *CircuitBreakerClient {
	const cbName = "pixiv-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening pixiv circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("pixiv circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{inner: inner, cb: cb}
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}

// execute runs fn through the breaker and normalizes the breaker's own
// open-circuit error into a NetworkError.
func (c *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &NetworkError{Op: "circuit breaker", Err: err}
	}
	return result, err
}

// Authenticate refreshes the access token through the breaker.
func (c *CircuitBreakerClient) Authenticate(ctx context.Context) error {
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.inner.Authenticate(ctx)
	})
	return err
}

// SearchIllusts runs a search through the breaker.
func (c *CircuitBreakerClient) SearchIllusts(ctx context.Context, params SearchParams, offset int) (*Page, error) {
	result, err := c.execute(func() (interface{}, error) {
		return c.inner.SearchIllusts(ctx, params, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Page), nil
}

// Ranking fetches a ranking board through the breaker.
func (c *CircuitBreakerClient) Ranking(ctx context.Context, mode RankingMode, offset int) (*Page, error) {
	result, err := c.execute(func() (interface{}, error) {
		return c.inner.Ranking(ctx, mode, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Page), nil
}

// Recommended fetches recommendations through the breaker.
func (c *CircuitBreakerClient) Recommended(ctx context.Context, offset int) (*Page, error) {
	result, err := c.execute(func() (interface{}, error) {
		return c.inner.Recommended(ctx, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Page), nil
}

// UserIllusts fetches an author's works through the breaker.
func (c *CircuitBreakerClient) UserIllusts(ctx context.Context, authorID int64, offset int) (*Page, error) {
	result, err := c.execute(func() (interface{}, error) {
		return c.inner.UserIllusts(ctx, authorID, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Page), nil
}

// IllustDetail fetches one illustration through the breaker.
func (c *CircuitBreakerClient) IllustDetail(ctx context.Context, illustID int64) (*models.Illust, error) {
	result, err := c.execute(func() (interface{}, error) {
		return c.inner.IllustDetail(ctx, illustID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Illust), nil
}

