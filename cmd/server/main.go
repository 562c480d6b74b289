// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).
		Str("data_dir", cfg.Storage.DataDir).
		Dur("interval", cfg.Sync.Interval).
		Bool("server_enabled", cfg.Server.Enabled).
		Msg("Starting sheetmirror")

	a, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}

	code := run(a, cfg)

	if err := a.Close(); err != nil {
		logging.Error().Err(err).Msg("Error during cleanup")
		code = 1
	}
	logging.Info().Msg("Sheetmirror stopped")
	os.Exit(code)
}

// run serves the supervisor tree until SIGINT/SIGTERM and returns the exit code.
func run(a *app, cfg *config.Config) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.NewTreeConfig(&cfg.Supervisor))
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return 1
	}
	a.addServices(tree, cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	code := 0
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			code = 1
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return code
}
