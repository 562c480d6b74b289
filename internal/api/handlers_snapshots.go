// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package api

import (
	"context"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/snapshot"
)

// List returns the snapshot file names as a bare JSON array, the shape the
// browser viewer expects. Names come from the state document; when it is
// empty or unreadable the data directory is scanned instead.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.snapshotNames(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "LIST_FAILED", "Failed to list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) snapshotNames(ctx context.Context) ([]string, error) {
	doc, err := h.state.Entries(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("State unreadable, listing data directory")
	}

	if err == nil && len(doc) > 0 {
		seen := make(map[string]bool, len(doc))
		names := make([]string, 0, len(doc))
		for key, entry := range doc {
			id, perr := strconv.ParseInt(key, 10, 64)
			if perr != nil {
				continue
			}
			name := h.naming.FileName(id, entry.Title)
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}

	return snapshot.List(h.dataDir)
}

// State returns the persisted state document.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	doc, err := h.state.Entries(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "STATE_UNAVAILABLE", "State document could not be read", err)
		return
	}
	respondJSON(w, http.StatusOK, doc, start)
}

// Data serves one snapshot file from the data directory. Only top-level
// *.json files are exposed; dot files (lock, temp files) and directories
// (the badger state) are not.
func (h *Handler) Data() http.Handler {
	files := http.StripPrefix("/data", http.FileServer(http.Dir(h.dataDir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if !servableSnapshot(name) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

func servableSnapshot(name string) bool {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return false
	}
	if strings.HasPrefix(name, ".") || path.Ext(name) != ".json" {
		return false
	}
	return path.Clean("/"+name) == "/"+name
}
