// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package state

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/models"
)

const prefixState = "state:"

// BadgerBackend stores one key per entry under the "state:" prefix.
// A Write replaces every entry inside a single read-write transaction.
type BadgerBackend struct {
	db     *badger.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerBackend opens (or creates) a BadgerDB database at path.
func OpenBadgerBackend(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().Str("path", path).Msg("Badger state backend opened")
	return &BadgerBackend{db: db, path: path}, nil
}

// Read collects every entry under the state prefix.
func (b *BadgerBackend) Read(ctx context.Context) (models.StateDocument, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	doc := models.StateDocument{}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixState)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), prefixState)

			var entry models.StateEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode state entry %s: %w", id, err)
			}
			doc[id] = entry
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate state entries: %w", err)
	}
	return doc, nil
}

// Write replaces the stored document with doc.
func (b *BadgerBackend) Write(ctx context.Context, doc models.StateDocument) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if err := deleteStale(txn, doc); err != nil {
			return err
		}
		for id, entry := range doc {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encode state entry %s: %w", id, err)
			}
			if err := txn.SetEntry(badger.NewEntry([]byte(prefixState+id), data)); err != nil {
				return fmt.Errorf("set state entry %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// deleteStale removes keys that are not in doc.
func deleteStale(txn *badger.Txn, doc models.StateDocument) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var stale [][]byte
	prefix := []byte(prefixState)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		if _, ok := doc[strings.TrimPrefix(string(key), prefixState)]; !ok {
			stale = append(stale, key)
		}
	}
	it.Close()

	for _, key := range stale {
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("delete stale state key: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	logging.Info().Str("path", b.path).Msg("Closing Badger state backend")
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}
