// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/sheetmirror/internal/logging"
)

// TriggerSync runs one tick immediately and returns its report. If a tick is
// already running the call waits for it, then runs its own.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.sync == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SYNC_UNAVAILABLE", "Sync manager not running", nil)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("Manual sync triggered")

	// a client disconnect must not cancel a tick halfway through its sources
	err := h.sync.TriggerSync(context.WithoutCancel(r.Context()))
	report := h.sync.LastTick()
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "SYNC_FAILED", "Sync failed: "+err.Error(), err)
		return
	}
	respondJSON(w, http.StatusOK, report, start)
}
