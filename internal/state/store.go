// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package state persists the per-source fingerprint document that lets the
// sync engine skip unchanged sources.
//
// The document is read once at the start of a tick (Load) and rewritten in
// full after every successful snapshot write (Commit). Entries are created on
// first sighting, overwritten on change and never deleted.
package state

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("state store closed")

// Backend reads and writes the whole state document.
type Backend interface {
	// Read returns the persisted document. A backend with nothing stored
	// returns an empty document and no error.
	Read(ctx context.Context) (models.StateDocument, error)

	// Write replaces the persisted document with doc.
	Write(ctx context.Context, doc models.StateDocument) error

	Close() error
}

// Classification is the result of comparing a fingerprint with the stored entry.
type Classification int

const (
	// Unseen means no entry exists for the source.
	Unseen Classification = iota
	// Changed means the stored hash differs.
	Changed
	// Unchanged means the stored hash is identical; nothing is written.
	Unchanged
)

func (c Classification) String() string {
	switch c {
	case Unseen:
		return "unseen"
	case Changed:
		return "changed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Store serializes access to a Backend.
type Store struct {
	backend Backend
	mu      sync.Mutex
	closed  bool
}

// NewStore wraps backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load returns the persisted document. Any read failure is logged and
// treated as a cold start: the caller gets an empty document.
func (s *Store) Load(ctx context.Context) models.StateDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		logging.Ctx(ctx).Warn().Err(ErrClosed).Msg("State read failed, starting from empty state")
		return models.StateDocument{}
	}

	doc, err := s.backend.Read(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("State read failed, starting from empty state")
		return models.StateDocument{}
	}
	if doc == nil {
		doc = models.StateDocument{}
	}
	return doc
}

// Classify compares fingerprint with the entry stored for id.
func Classify(doc models.StateDocument, id int64, fingerprint string) Classification {
	entry, ok := doc.Get(id)
	switch {
	case !ok:
		return Unseen
	case entry.Hash != fingerprint:
		return Changed
	default:
		return Unchanged
	}
}

// Commit upserts the entry for id into doc and rewrites the whole document.
// doc keeps the new entry even when the write fails.
func (s *Store) Commit(ctx context.Context, doc models.StateDocument, id int64, title, fingerprint string, totalRow int) error {
	doc[models.StateKey(id)] = models.StateEntry{
		Title:    title,
		Hash:     fingerprint,
		TotalRow: totalRow,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.closed {
		err = ErrClosed
	} else {
		err = s.backend.Write(ctx, doc)
	}
	metrics.RecordStateCommit(err)
	return err
}

// Entries is a strict read of the persisted document; errors are returned.
func (s *Store) Entries(ctx context.Context) (models.StateDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	doc, err := s.backend.Read(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = models.StateDocument{}
	}
	return doc, nil
}

// Close closes the backend. Further calls fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

func cloneDocument(doc models.StateDocument) models.StateDocument {
	out := make(models.StateDocument, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
