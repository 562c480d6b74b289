// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package api serves the snapshot directory and the mirror's status over HTTP.
//
// Routes:
//
//	GET  /data/{file}  snapshot files, as written by the sync engine
//	GET  /list         JSON array of snapshot file names
//	GET  /state        the persisted state document
//	GET  /healthz      last tick report
//	POST /sync         run one tick now
//	GET  /metrics      Prometheus metrics
package api

import (
	"context"
	"time"

	"github.com/tomtom215/sheetmirror/internal/models"
	"github.com/tomtom215/sheetmirror/internal/snapshot"
)

// StateReader is the read side of the state store.
type StateReader interface {
	Entries(ctx context.Context) (models.StateDocument, error)
}

// SyncController exposes the scheduler to HTTP handlers.
type SyncController interface {
	LastTick() *models.TickReport
	TriggerSync(ctx context.Context) error
}

// Handler contains dependencies for API handlers.
type Handler struct {
	dataDir   string
	naming    snapshot.Naming
	state     StateReader
	sync      SyncController
	startTime time.Time
}

// NewHandler creates the snapshot server handlers. sync may be nil, in which
// case /healthz reports "starting" and POST /sync is unavailable.
func NewHandler(dataDir string, naming snapshot.Naming, state StateReader, sync SyncController) *Handler {
	return &Handler{
		dataDir:   dataDir,
		naming:    naming,
		state:     state,
		sync:      sync,
		startTime: time.Now(),
	}
}
