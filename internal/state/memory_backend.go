// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package state

import (
	"context"
	"sync"

	"github.com/tomtom215/sheetmirror/internal/models"
)

// MemoryBackend keeps the document in process memory. Used by tests and by
// STATE_BACKEND=memory, where every restart is a cold start.
type MemoryBackend struct {
	mu     sync.Mutex
	doc    models.StateDocument
	writes int

	// ReadErr and WriteErr, when set, are returned instead of touching the document.
	ReadErr  error
	WriteErr error
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{doc: models.StateDocument{}}
}

// Read returns a copy of the document.
func (b *MemoryBackend) Read(_ context.Context) (models.StateDocument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReadErr != nil {
		return nil, b.ReadErr
	}
	return cloneDocument(b.doc), nil
}

// Write stores a copy of doc.
func (b *MemoryBackend) Write(_ context.Context, doc models.StateDocument) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.doc = cloneDocument(doc)
	b.writes++
	return nil
}

// Writes returns how many successful writes happened.
func (b *MemoryBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Close is a no-op.
func (b *MemoryBackend) Close() error {
	return nil
}
