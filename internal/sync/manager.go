// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
	"github.com/tomtom215/sheetmirror/internal/state"
)

// SnapshotWriter persists a normalized table.
type SnapshotWriter interface {
	Write(ctx context.Context, table *models.Table) error
}

// Manager runs sync ticks on a fixed interval. Ticks never overlap: the
// periodic loop and TriggerSync share syncMu.
type Manager struct {
	tokens TokenSource
	sheets SheetsAPI
	store  *state.Store
	writer SnapshotWriter
	cfg    *config.SyncConfig
	now    func() time.Time

	running  bool
	mu       sync.RWMutex
	syncMu   sync.Mutex // Protects concurrent tick execution
	stopChan chan struct{}
	wg       sync.WaitGroup
	lastTick *models.TickReport
}

// NewManager wires the tick pipeline.
func NewManager(tokens TokenSource, sheets SheetsAPI, store *state.Store, writer SnapshotWriter, cfg *config.SyncConfig) *Manager {
	logging.Info().Dur("interval", cfg.Interval).Msg("Sync manager config loaded")

	return &Manager{
		tokens: tokens,
		sheets: sheets,
		store:  store,
		writer: writer,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Start runs one tick immediately, then one per interval, until Stop or ctx ends.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	logging.Info().Msg("Starting sync manager...")

	m.wg.Add(1)
	go m.syncLoop(ctx, stop)
	return nil
}

// Stop signals the loop and waits for the in-flight tick to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// Running reports whether the loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) syncLoop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	if _, err := m.RunTick(ctx); err != nil {
		logging.Error().Err(err).Msg("Initial sync failed (will retry)")
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := m.RunTick(ctx); err != nil {
				logging.Error().Err(err).Msg("Sync failed")
			}
		}
	}
}

// TriggerSync runs one tick outside the schedule and returns its error.
func (m *Manager) TriggerSync(ctx context.Context) error {
	_, err := m.RunTick(ctx)
	return err
}

// LastTick returns the report of the most recent tick, or nil before the first.
func (m *Manager) LastTick() *models.TickReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastTick == nil {
		return nil
	}
	report := *m.lastTick
	return &report
}

// RunTick performs one complete tick. The returned error is non-nil only when
// the tick was aborted (token, listing or cancellation); per-source failures
// are counted in the report and logged.
func (m *Manager) RunTick(ctx context.Context) (models.TickReport, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	report := models.TickReport{
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		StartedAt:     m.now(),
	}
	start := time.Now()

	err := m.tick(ctx, &report)

	report.Duration = time.Since(start)
	switch {
	case err == nil && report.Failed > 0:
		report.Result = metrics.TickResultSourceError
	case err == nil:
		report.Result = metrics.TickResultOK
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		report.Result = metrics.TickResultCanceled
	case report.Result == "":
		report.Result = metrics.TickResultListError
	}
	if err != nil {
		report.Error = err.Error()
	}
	metrics.RecordTick(report.Duration, report.Result)

	m.mu.Lock()
	stored := report
	m.lastTick = &stored
	m.mu.Unlock()

	logging.Ctx(ctx).Info().
		Str("result", report.Result).
		Int("sources", report.Sources).
		Int("written", report.Written()).
		Int("unchanged", report.Unchanged).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("Sync tick completed")

	return report, err
}

func (m *Manager) tick(ctx context.Context, report *models.TickReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token, err := m.tokens.Refresh(ctx)
	if err != nil {
		report.Result = metrics.TickResultAuthError
		logging.Ctx(ctx).Error().Err(err).Msg("Token refresh failed, skipping tick")
		return fmt.Errorf("refresh token: %w", err)
	}

	sources, err := m.sheets.List(ctx, token)
	if err != nil {
		report.Result = metrics.TickResultListError
		logging.Ctx(ctx).Error().Err(err).Msg("Listing sheets failed, skipping tick")
		return err
	}
	report.Sources = len(sources)

	doc := m.store.Load(ctx)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		class, err := m.processSource(ctx, token, doc, src)
		if err != nil {
			report.Failed++
			metrics.RecordSource("failed")
			logging.Ctx(ctx).Error().
				Err(err).
				Int64("sheet_id", src.ID).
				Str("title", src.Title).
				Msg("Source sync failed")
			continue
		}

		metrics.RecordSource(class.String())
		switch class {
		case state.Unseen:
			report.Unseen++
		case state.Changed:
			report.Changed++
		case state.Unchanged:
			report.Unchanged++
		}
	}
	return nil
}

// processSource fetches one source and, unless its fingerprint is unchanged,
// writes its snapshot and commits its state entry. Once the write starts the
// commit runs to completion even if ctx is canceled.
func (m *Manager) processSource(ctx context.Context, token *oauth2.Token, doc models.StateDocument, src models.Source) (state.Classification, error) {
	raw, err := m.sheets.Fetch(ctx, token, src.ID)
	if err != nil {
		return state.Unseen, err
	}

	fingerprint := Digest(raw)
	class := state.Classify(doc, src.ID, fingerprint)

	log := logging.Ctx(ctx).With().Int64("sheet_id", src.ID).Str("title", src.Title).Logger()

	if class == state.Unchanged {
		log.Info().Str("action", "skip").Msg("SKIP")
		return class, nil
	}

	table := Normalize(raw, m.now())
	table.SheetID = src.ID
	// snapshot name, pointer and state entry all derive from table.Title
	if table.Title == "" {
		table.Title = src.Title
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := m.writer.Write(persistCtx, table); err != nil {
		return class, fmt.Errorf("write snapshot %d: %w: %w", src.ID, ErrIO, err)
	}
	if err := m.store.Commit(persistCtx, doc, src.ID, table.Title, fingerprint, table.TotalRow()); err != nil {
		return class, fmt.Errorf("commit state %d: %w: %w", src.ID, ErrIO, err)
	}

	action := "INSERT"
	if class == state.Changed {
		action = "UPDATE"
	}
	log.Info().
		Str("action", class.String()).
		Str("hash", fingerprint).
		Int("total_row", table.TotalRow()).
		Msg(action)
	return class, nil
}
