// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
	"github.com/tomtom215/sheetmirror/internal/snapshot"
	"github.com/tomtom215/sheetmirror/internal/state"
)

type stubSync struct {
	mu       sync.Mutex
	last     *models.TickReport
	err      error
	triggers int
}

func (s *stubSync) LastTick() *models.TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *stubSync) TriggerSync(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers++
	s.last = &models.TickReport{Result: metrics.TickResultOK, Sources: 1}
	if s.err != nil {
		s.last.Result = metrics.TickResultAuthError
	}
	return s.err
}

type testServer struct {
	dir     string
	backend *state.MemoryBackend
	store   *state.Store
	sync    *stubSync
	handler http.Handler
}

func newTestServer(t *testing.T, naming snapshot.Naming) *testServer {
	t.Helper()

	ts := &testServer{
		dir:     t.TempDir(),
		backend: state.NewMemoryBackend(),
		sync:    &stubSync{},
	}
	ts.store = state.NewStore(ts.backend)

	h := NewHandler(ts.dir, naming, ts.store, ts.sync)
	mw := NewChiMiddleware(NewChiMiddlewareConfig(&config.ServerConfig{
		CORSOrigins:     []string{"*"},
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	}))
	ts.handler = NewRouter(h, mw).SetupChi()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func (ts *testServer) writeTable(t *testing.T, naming snapshot.Naming, table *models.Table) {
	t.Helper()
	w := snapshot.NewWriter(ts.dir, naming)
	if err := w.Write(context.Background(), table); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	doc, err := ts.store.Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := ts.store.Commit(context.Background(), doc, table.SheetID, table.Title, "HASH", table.TotalRow()); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func TestList_FromState(t *testing.T) {
	ts := newTestServer(t, snapshot.NamingID)
	ts.writeTable(t, snapshot.NamingID, &models.Table{SheetID: 222, Title: "B", Rows: [][]string{{"x"}}})
	ts.writeTable(t, snapshot.NamingID, &models.Table{SheetID: 111, Title: "A", Rows: [][]string{{"y"}}})

	rec := ts.do(t, http.MethodGet, "/list")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatalf("expected bare JSON array, got %s", rec.Body.String())
	}
	expected := []string{"111.json", "222.json"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
}

func TestList_SlugNaming(t *testing.T) {
	ts := newTestServer(t, snapshot.NamingSlug)
	ts.writeTable(t, snapshot.NamingSlug, &models.Table{SheetID: 5, Title: "Jakarta Pusat"})

	rec := ts.do(t, http.MethodGet, "/list")
	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"jakarta-pusat.json"}) {
		t.Errorf("expected slug file name, got %v", names)
	}
}

func TestList_FallsBackToDirectory(t *testing.T) {
	tests := []struct {
		name    string
		readErr error
	}{
		{"empty state", nil},
		{"unreadable state", errors.New("corrupt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, snapshot.NamingID)
			w := snapshot.NewWriter(ts.dir, snapshot.NamingID)
			if err := w.Write(context.Background(), &models.Table{SheetID: 9, Title: "Nine"}); err != nil {
				t.Fatal(err)
			}
			ts.backend.ReadErr = tt.readErr

			rec := ts.do(t, http.MethodGet, "/list")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var names []string
			if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(names, []string{"9.json"}) {
				t.Errorf("expected [9.json], got %v", names)
			}
		})
	}
}

func TestState(t *testing.T) {
	ts := newTestServer(t, snapshot.NamingID)
	ts.writeTable(t, snapshot.NamingID, &models.Table{SheetID: 7, Title: "T", Rows: [][]string{{"a"}}})

	rec := ts.do(t, http.MethodGet, "/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status string               `json:"status"`
		Data   models.StateDocument `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" {
		t.Errorf("expected success, got %s", resp.Status)
	}
	expected := models.StateDocument{"7": {Title: "T", Hash: "HASH", TotalRow: 1}}
	if !reflect.DeepEqual(resp.Data, expected) {
		t.Errorf("expected %v, got %v", expected, resp.Data)
	}
}

func TestState_Unavailable(t *testing.T) {
	ts := newTestServer(t, snapshot.NamingID)
	ts.backend.ReadErr = errors.New("disk gone")

	rec := ts.do(t, http.MethodGet, "/state")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "STATE_UNAVAILABLE") {
		t.Errorf("expected error code in body, got %s", rec.Body.String())
	}
}

func TestData(t *testing.T) {
	ts := newTestServer(t, snapshot.NamingID)
	ts.writeTable(t, snapshot.NamingID, &models.Table{SheetID: 111, Title: "A", Rows: [][]string{{"cell"}}})
	if err := os.WriteFile(filepath.Join(ts.dir, ".sheetmirror.lock"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ts.dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/data/111.json", http.StatusOK},
		{"/data/" + snapshot.LastUpdatedFile, http.StatusOK},
		{"/data/404.json", http.StatusNotFound},
		{"/data/.sheetmirror.lock", http.StatusNotFound},
		{"/data/notes.txt", http.StatusNotFound},
		{"/data/", http.StatusNotFound},
		{"/data/sub/111.json", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.path)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	rec := ts.do(t, http.MethodGet, "/data/111.json")
	var table models.Table
	if err := json.Unmarshal(rec.Body.Bytes(), &table); err != nil {
		t.Fatalf("expected snapshot JSON, got %s", rec.Body.String())
	}
	if table.SheetID != 111 || len(table.Rows) != 1 {
		t.Errorf("expected snapshot of sheet 111, got %+v", table)
	}
}

func TestServableSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"111.json", true},
		{"jakarta-pusat.json", true},
		{"", false},
		{".hidden.json", false},
		{"../secret.json", false},
		{"a/b.json", false},
		{"a\\b.json", false},
		{"state.badger", false},
		{"111.JSON", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := servableSnapshot(tt.name); got != tt.expected {
				t.Errorf("expected %v for %q, got %v", tt.expected, tt.name, got)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name         string
		last         *models.TickReport
		expectStatus string
		expectCode   int
	}{
		{"before first tick", nil, HealthStarting, http.StatusOK},
		{"ok", &models.TickReport{Result: metrics.TickResultOK}, HealthOK, http.StatusOK},
		{"partial", &models.TickReport{Result: metrics.TickResultSourceError, Failed: 1}, HealthDegraded, http.StatusOK},
		{"auth error", &models.TickReport{Result: metrics.TickResultAuthError}, HealthDegraded, http.StatusServiceUnavailable},
		{"list error", &models.TickReport{Result: metrics.TickResultListError}, HealthDegraded, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, snapshot.NamingID)
			ts.sync.last = tt.last

			rec := ts.do(t, http.MethodGet, "/healthz")
			if rec.Code != tt.expectCode {
				t.Errorf("expected %d, got %d", tt.expectCode, rec.Code)
			}

			var resp struct {
				Data models.HealthStatus `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Data.Status != tt.expectStatus {
				t.Errorf("expected status %s, got %s", tt.expectStatus, resp.Data.Status)
			}
		})
	}
}

func TestHealth_NoSyncManager(t *testing.T) {
	h := NewHandler(t.TempDir(), snapshot.NamingID, state.NewStore(state.NewMemoryBackend()), nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), HealthStarting) {
		t.Errorf("expected starting status, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTriggerSync(t *testing.T) {
	ts := newTestServer(t, snapshot.NamingID)

	rec := ts.do(t, http.MethodPost, "/sync")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.sync.triggers != 1 {
		t.Errorf("expected one triggered tick, got %d", ts.sync.triggers)
	}

	ts.sync.err = errors.New("authentication failed")
	rec = ts.do(t, http.MethodPost, "/sync")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/sync")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET /sync, got %d", rec.Code)
	}
}

func TestTriggerSync_NoSyncManager(t *testing.T) {
	h := NewHandler(t.TempDir(), snapshot.NamingID, state.NewStore(state.NewMemoryBackend()), nil)
	rec := httptest.NewRecorder()
	h.TriggerSync(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
