// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package models

import "time"

// APIResponse wraps JSON responses of the snapshot server (except /list and /data).
type APIResponse struct {
	Status   string      `json:"status"` // "success" or "error"
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every APIResponse.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string      `json:"status"` // "ok", "degraded" or "starting"
	LastTick *TickReport `json:"last_tick,omitempty"`
}

// TickReport summarizes one sync tick.
type TickReport struct {
	CorrelationID string        `json:"correlation_id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Result        string        `json:"result"`
	Error         string        `json:"error,omitempty"`
	Sources       int           `json:"sources"`
	Unseen        int           `json:"unseen"`
	Changed       int           `json:"changed"`
	Unchanged     int           `json:"unchanged"`
	Failed        int           `json:"failed"`
}

// Written is the number of sources whose snapshot was (re)written.
func (r *TickReport) Written() int {
	return r.Unseen + r.Changed
}
