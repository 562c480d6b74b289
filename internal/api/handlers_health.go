// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// Health status values.
const (
	HealthStarting = "starting"
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health reports the outcome of the most recent tick.
//
//	starting  no tick has finished yet (200)
//	ok        last tick completed without failures (200)
//	degraded  last tick had failing sources or was canceled (200),
//	          or was aborted by a token or listing error (503)
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var last *models.TickReport
	if h.sync != nil {
		last = h.sync.LastTick()
	}

	status, code := healthFromTick(last)
	respondJSON(w, code, models.HealthStatus{
		Status:   status,
		LastTick: last,
	}, start)
}

func healthFromTick(last *models.TickReport) (string, int) {
	if last == nil {
		return HealthStarting, http.StatusOK
	}
	switch last.Result {
	case metrics.TickResultOK:
		return HealthOK, http.StatusOK
	case metrics.TickResultAuthError, metrics.TickResultListError:
		return HealthDegraded, http.StatusServiceUnavailable
	default:
		return HealthDegraded, http.StatusOK
	}
}
