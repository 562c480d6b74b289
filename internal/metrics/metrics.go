// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package metrics holds the Prometheus instruments for sheetmirror.
//
// All collectors register on the default registry through promauto and are
// exposed by the api package at GET /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tick results.
const (
	TickResultOK          = "ok"
	TickResultAuthError   = "auth_error"
	TickResultListError   = "list_error"
	TickResultCanceled    = "canceled"
	TickResultSourceError = "partial"
)

var (
	// Sync Tick Metrics
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetmirror_ticks_total",
			Help: "Total number of sync ticks by result",
		},
		[]string{"result"}, // ok, partial, auth_error, list_error, canceled
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheetmirror_tick_duration_seconds",
			Help:    "Duration of one sync tick in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sheetmirror_last_success_timestamp",
			Help: "Unix timestamp of the last tick that reached every source",
		},
	)

	// Per-source Metrics
	SourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetmirror_sources_total",
			Help: "Sources processed by classification",
		},
		[]string{"classification"}, // unseen, changed, unchanged, failed
	)

	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetmirror_snapshot_writes_total",
			Help: "Snapshot file writes by result",
		},
		[]string{"result"},
	)

	StateCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetmirror_state_commits_total",
			Help: "State document commits by result",
		},
		[]string{"result"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetmirror_token_refresh_total",
			Help: "Access token refreshes by result",
		},
		[]string{"result"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheetmirror_upstream_request_duration_seconds",
			Help:    "Duration of requests to the spreadsheet API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "status_code"}, // operation: list, fetch
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Snapshot Server Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordTick records the outcome of one sync tick.
func RecordTick(duration time.Duration, result string) {
	TickDuration.Observe(duration.Seconds())
	TicksTotal.WithLabelValues(result).Inc()
	if result == TickResultOK {
		LastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordSource counts one processed source by classification.
func RecordSource(classification string) {
	SourcesTotal.WithLabelValues(classification).Inc()
}

// RecordSnapshotWrite counts a snapshot write.
func RecordSnapshotWrite(err error) {
	SnapshotWrites.WithLabelValues(resultLabel(err)).Inc()
}

// RecordStateCommit counts a state document commit.
func RecordStateCommit(err error) {
	StateCommits.WithLabelValues(resultLabel(err)).Inc()
}

// RecordTokenRefresh counts a token refresh.
func RecordTokenRefresh(err error) {
	TokenRefreshes.WithLabelValues(resultLabel(err)).Inc()
}

// RecordUpstreamRequest records one call to the spreadsheet API.
// statusCode is 0 when no response was received.
func RecordUpstreamRequest(operation string, statusCode int, duration time.Duration) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	UpstreamRequestDuration.WithLabelValues(operation, code).Observe(duration.Seconds())
}

// RecordAPIRequest records a snapshot server request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
