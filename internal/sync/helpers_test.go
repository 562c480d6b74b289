// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/snapshot"
	"github.com/tomtom215/sheetmirror/internal/state"
)

const (
	testSpreadsheetID = "sheet-1"
	testAccessToken   = "at-1"
)

// fakeUpstream plays both the token endpoint and the spreadsheet API.
type fakeUpstream struct {
	mu gosync.Mutex

	tokenStatus int
	tokenBody   string
	listStatus  int
	listBody    string
	payloads    map[int64]string
	fetchStatus map[int64]int

	tokenCalls  int
	listCalls   int
	fetchCalls  []int64
	authHeaders []string
	tokenForms  []map[string]string
}

func newFakeUpstream(t *testing.T) (*fakeUpstream, *httptest.Server) {
	t.Helper()

	up := &fakeUpstream{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"` + testAccessToken + `","token_type":"Bearer","expires_in":3600}`,
		listStatus:  http.StatusOK,
		payloads:    map[int64]string{},
		fetchStatus: map[int64]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", up.handleToken)
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheetID+":getByDataFilter", up.handleData)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return up, srv
}

func (up *fakeUpstream) handleToken(w http.ResponseWriter, r *http.Request) {
	up.mu.Lock()
	defer up.mu.Unlock()

	up.tokenCalls++
	if err := r.ParseForm(); err == nil {
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		up.tokenForms = append(up.tokenForms, form)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(up.tokenStatus)
	fmt.Fprint(w, up.tokenBody)
}

func (up *fakeUpstream) handleData(w http.ResponseWriter, r *http.Request) {
	up.mu.Lock()
	defer up.mu.Unlock()

	up.authHeaders = append(up.authHeaders, r.Header.Get("Authorization"))

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if !req.IncludeGridData {
		up.listCalls++
		w.WriteHeader(up.listStatus)
		fmt.Fprint(w, up.listBody)
		return
	}

	if len(req.DataFilters) != 1 {
		http.Error(w, "expected one data filter", http.StatusBadRequest)
		return
	}
	id := req.DataFilters[0].GridRange.SheetID
	up.fetchCalls = append(up.fetchCalls, id)

	if status, ok := up.fetchStatus[id]; ok {
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error":{"message":"boom"}}`)
		return
	}
	payload, ok := up.payloads[id]
	if !ok {
		http.Error(w, "unknown sheet", http.StatusNotFound)
		return
	}
	fmt.Fprint(w, payload)
}

func (up *fakeUpstream) set(fn func(up *fakeUpstream)) {
	up.mu.Lock()
	defer up.mu.Unlock()
	fn(up)
}

func (up *fakeUpstream) counts() (token, list, fetch int) {
	up.mu.Lock()
	defer up.mu.Unlock()
	return up.tokenCalls, up.listCalls, len(up.fetchCalls)
}

func (up *fakeUpstream) headers() []string {
	up.mu.Lock()
	defer up.mu.Unlock()
	return append([]string(nil), up.authHeaders...)
}

func (up *fakeUpstream) fetched() []int64 {
	up.mu.Lock()
	defer up.mu.Unlock()
	return append([]int64(nil), up.fetchCalls...)
}

func (up *fakeUpstream) forms() []map[string]string {
	up.mu.Lock()
	defer up.mu.Unlock()
	return append([]map[string]string(nil), up.tokenForms...)
}

type testSheet struct {
	id    int64
	title string
}

// listingJSON builds a listing whose first entry is the index sheet.
func listingJSON(sheets ...testSheet) string {
	entries := []string{`{"properties":{"sheetId":0,"title":"Index"}}`}
	for _, s := range sheets {
		entries = append(entries, fmt.Sprintf(`{"properties":{"sheetId":%d,"title":%q}}`, s.id, s.title))
	}
	return `{"spreadsheetId":"` + testSpreadsheetID + `","sheets":[` + strings.Join(entries, ",") + `]}`
}

// payloadJSON builds a fetch payload. An empty cell is encoded as {} (no formattedValue).
func payloadJSON(id int64, title string, rows [][]string) string {
	rowData := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		values := make([]interface{}, 0, len(row))
		for _, cell := range row {
			if cell == "" {
				values = append(values, map[string]interface{}{})
				continue
			}
			values = append(values, map[string]interface{}{"formattedValue": cell})
		}
		rowData = append(rowData, map[string]interface{}{"values": values})
	}

	doc := map[string]interface{}{
		"spreadsheetId": testSpreadsheetID,
		"sheets": []interface{}{
			map[string]interface{}{
				"properties": map[string]interface{}{"sheetId": id, "title": title},
				"data":       []interface{}{map[string]interface{}{"rowData": rowData}},
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}

type testHarness struct {
	up      *fakeUpstream
	srv     *httptest.Server
	backend *state.MemoryBackend
	store   *state.Store
	writer  *snapshot.Writer
	dir     string
	manager *Manager
	clock   time.Time
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	up, srv := newFakeUpstream(t)
	h := &testHarness{
		up:      up,
		srv:     srv,
		backend: state.NewMemoryBackend(),
		dir:     t.TempDir(),
		clock:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	h.store = state.NewStore(h.backend)
	h.writer = snapshot.NewWriter(h.dir, snapshot.NamingID)

	tokens := NewTokenProvider(&config.OAuthConfig{
		TokenURL:     srv.URL + "/token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		RefreshToken: "rt",
	}, srv.Client())
	sheets := NewSheetsClient(&config.SheetsConfig{
		BaseURL:        srv.URL,
		SpreadsheetID:  testSpreadsheetID,
		SkipFirst:      true,
		RequestTimeout: 5 * time.Second,
	}, srv.Client())

	h.manager = NewManager(tokens, sheets, h.store, h.writer, &config.SyncConfig{Interval: time.Hour})
	h.manager.now = func() time.Time { return h.clock }
	return h
}
