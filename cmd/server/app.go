// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofrs/flock"

	"github.com/tomtom215/sheetmirror/internal/api"
	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/fileutil"
	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/snapshot"
	"github.com/tomtom215/sheetmirror/internal/state"
	"github.com/tomtom215/sheetmirror/internal/supervisor"
	"github.com/tomtom215/sheetmirror/internal/supervisor/services"
	syncpkg "github.com/tomtom215/sheetmirror/internal/sync"
)

// errAlreadyRunning is returned when another process holds the data directory lock.
var errAlreadyRunning = errors.New("another sheetmirror instance is already running")

// app owns every long-lived resource of the process.
type app struct {
	lock    *flock.Flock
	store   *state.Store
	manager *syncpkg.Manager
	handler http.Handler
}

// acquireLock takes the single-instance lock inside the data directory.
func acquireLock(cfg *config.StorageConfig) (*flock.Flock, error) {
	if err := fileutil.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errAlreadyRunning
	}
	logging.Debug().Str("path", lock.Path()).Msg("Data directory lock acquired")
	return lock, nil
}

// newSheetsAPI builds the spreadsheet client, behind a circuit breaker when enabled.
func newSheetsAPI(cfg *config.SheetsConfig, client *http.Client) syncpkg.SheetsAPI {
	sheets := syncpkg.NewSheetsClient(cfg, client)
	if !cfg.CircuitBreaker {
		return sheets
	}
	logging.Info().Msg("Spreadsheet API circuit breaker enabled")
	return syncpkg.NewCircuitBreakerClient(sheets)
}

// newApp wires configuration into the engine. On error every resource
// acquired so far is released.
func newApp(cfg *config.Config) (*app, error) {
	lock, err := acquireLock(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	statePath := cfg.Storage.ResolvedStatePath()
	backend, err := state.OpenBackend(cfg.Storage.StateBackend, statePath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open state backend: %w", err)
	}
	store := state.NewStore(backend)
	logging.Info().
		Str("backend", cfg.Storage.StateBackend).
		Str("path", statePath).
		Msg("State store opened")

	naming := snapshot.ParseNaming(cfg.Snapshot.Naming)
	writer := snapshot.NewWriter(cfg.Storage.DataDir, naming)

	httpClient := &http.Client{Timeout: cfg.Sheets.RequestTimeout}
	tokens := syncpkg.NewTokenProvider(&cfg.OAuth, httpClient)
	sheets := newSheetsAPI(&cfg.Sheets, httpClient)

	manager := syncpkg.NewManager(tokens, sheets, store, writer, &cfg.Sync)

	a := &app{
		lock:    lock,
		store:   store,
		manager: manager,
	}

	if cfg.Server.Enabled {
		handler := api.NewHandler(writer.Dir(), writer.Naming(), store, manager)
		mw := api.NewChiMiddleware(api.NewChiMiddlewareConfig(&cfg.Server))
		a.handler = api.NewRouter(handler, mw).SetupChi()
	}
	return a, nil
}

// addServices registers the app's services with tree.
func (a *app) addServices(tree *supervisor.SupervisorTree, cfg *config.Config) {
	tree.AddSyncService(services.NewSyncService(a.manager))

	if a.handler != nil {
		server := services.NewHTTPServer(&cfg.Server, a.handler)
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}
}

// Close releases the state store and the lock, in that order.
func (a *app) Close() error {
	var errs []error
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close state store: %w", err))
	}
	if err := a.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}
	return errors.Join(errs...)
}
