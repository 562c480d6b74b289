// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sheetmirror/internal/fileutil"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// FileBackend stores the document as one JSON object, replaced atomically.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the JSON file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Read decodes the document. A missing file is an empty document.
func (b *FileBackend) Read(ctx context.Context) (models.StateDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.StateDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	doc := models.StateDocument{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", b.path, err)
	}
	return doc, nil
}

// Write encodes doc and replaces the file.
func (b *FileBackend) Write(ctx context.Context, doc models.StateDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := fileutil.EnsureDir(filepath.Dir(b.path)); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(b.path, data, fileutil.DefaultFilePerm); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend) Close() error {
	return nil
}
