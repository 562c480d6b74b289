// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package services adapts sheetmirror components to suture.Service.
package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// TickManager is the lifecycle of *sync.Manager.
type TickManager interface {
	Start(ctx context.Context) error
	Stop() error
	LastTick() *models.TickReport
}

// SyncService runs the tick scheduler under supervision. Start spawns the
// scheduler loop and returns; Serve then blocks until ctx is canceled and
// stops the loop, waiting for an in-flight tick to finish.
type SyncService struct {
	manager TickManager
	name    string
}

// NewSyncService wraps manager.
//
//	svc := services.NewSyncService(manager)
//	tree.AddSyncService(svc)
func NewSyncService(manager TickManager) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "sync-manager",
	}
}

// Serve implements suture.Service. A Start error is returned so the
// supervisor restarts the service with backoff.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync manager stop failed: %w", err)
	}

	if last := s.manager.LastTick(); last != nil {
		logging.Info().
			Str("correlation_id", last.CorrelationID).
			Str("result", last.Result).
			Time("started_at", last.StartedAt).
			Msg("Sync manager stopped after last tick")
	}
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *SyncService) String() string {
	return s.name
}
