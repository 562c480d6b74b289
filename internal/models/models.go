// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

// Package models defines the data shared by the sync engine, the state store,
// the snapshot writer and the snapshot server.
package models

import (
	"strconv"
	"time"
)

// Source is one sheet (tab) of the spreadsheet, recomputed every tick.
type Source struct {
	ID    int64  `json:"sheet_id"`
	Title string `json:"title"`
}

// Table is the normalized content of one source as written to its snapshot file.
// No row consists only of empty strings; row and cell order are preserved.
type Table struct {
	SheetID   int64      `json:"sheet_id"`
	Title     string     `json:"title"`
	Rows      [][]string `json:"rows"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalRow is the number of retained rows.
func (t *Table) TotalRow() int {
	return len(t.Rows)
}

// LastUpdated points at the most recently written snapshot.
type LastUpdated struct {
	SheetID   int64     `json:"sheet_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateEntry is the persisted record for one source.
type StateEntry struct {
	Title    string `json:"title"`
	Hash     string `json:"hash"`
	TotalRow int    `json:"total_row"`
}

// StateDocument maps the decimal source id to its entry.
type StateDocument map[string]StateEntry

// StateKey formats a source id as a StateDocument key.
func StateKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Get returns the entry for id.
func (d StateDocument) Get(id int64) (StateEntry, bool) {
	e, ok := d[StateKey(id)]
	return e, ok
}
