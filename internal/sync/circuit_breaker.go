// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// CircuitBreakerClient wraps a SheetsAPI with a circuit breaker. The breaker
// never retries; while open it rejects calls immediately with ErrNetwork so a
// dead upstream costs one fast failure per source instead of a full timeout.
//
// Only ErrNetwork failures count against the breaker. Protocol errors and
// context cancellation do not trip it.
type CircuitBreakerClient struct {
	client SheetsAPI
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates the breaker:
//   - Max 3 requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failures with at least 5 requests
func NewCircuitBreakerClient(client SheetsAPI) *CircuitBreakerClient {
	cbName := "sheets-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrNetwork) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// State returns the current breaker state name.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: circuit breaker %s: %w", ErrNetwork, cbc.name, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: circuit breaker: unexpected result type %T", ErrProtocol, result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
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

func stateToString(state gobreaker.State) string {
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

// List lists sources with circuit breaker protection.
func (cbc *CircuitBreakerClient) List(ctx context.Context, token *oauth2.Token) ([]models.Source, error) {
	return castResult[[]models.Source](cbc.execute(func() (interface{}, error) {
		return cbc.client.List(ctx, token)
	}))
}

// Fetch fetches one sheet with circuit breaker protection.
func (cbc *CircuitBreakerClient) Fetch(ctx context.Context, token *oauth2.Token, sheetID int64) ([]byte, error) {
	return castResult[[]byte](cbc.execute(func() (interface{}, error) {
		return cbc.client.Fetch(ctx, token, sheetID)
	}))
}
