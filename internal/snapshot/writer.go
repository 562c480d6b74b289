// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package snapshot writes normalized tables to JSON files in the data
// directory and maintains the last_updated.json pointer.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sheetmirror/internal/fileutil"
	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// LastUpdatedFile is the pointer file name inside the data directory.
const LastUpdatedFile = "last_updated.json"

// reservedFiles are JSON files in the data directory that are not snapshots.
var reservedFiles = map[string]bool{
	LastUpdatedFile: true,
	"data.json":     true,
}

// Writer persists snapshot files.
type Writer struct {
	dir    string
	naming Naming
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string, naming Naming) *Writer {
	return &Writer{dir: dir, naming: naming}
}

// Dir returns the data directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Naming returns the naming strategy.
func (w *Writer) Naming() Naming {
	return w.naming
}

// Path returns the snapshot path for a source.
func (w *Writer) Path(id int64, title string) string {
	return filepath.Join(w.dir, w.naming.FileName(id, title))
}

// Write replaces the snapshot file of table, then the last_updated pointer.
// A failure leaves the previous snapshot intact.
func (w *Writer) Write(ctx context.Context, table *models.Table) error {
	err := w.write(ctx, table)
	metrics.RecordSnapshotWrite(err)
	return err
}

func (w *Writer) write(ctx context.Context, table *models.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileutil.EnsureDir(w.dir); err != nil {
		return err
	}

	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode snapshot %d: %w", table.SheetID, err)
	}

	path := w.Path(table.SheetID, table.Title)
	if err := fileutil.WriteFileAtomic(path, data, fileutil.DefaultFilePerm); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	pointer, err := json.Marshal(models.LastUpdated{
		SheetID:   table.SheetID,
		Title:     table.Title,
		UpdatedAt: table.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode last updated: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(w.dir, LastUpdatedFile), pointer, fileutil.DefaultFilePerm); err != nil {
		return fmt.Errorf("write last updated: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Int64("sheet_id", table.SheetID).
		Str("path", path).
		Int("rows", table.TotalRow()).
		Msg("Snapshot written")
	return nil
}

// List returns the snapshot file names in dir, sorted. Reserved files and
// temp files are excluded. A missing directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") || reservedFiles[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
