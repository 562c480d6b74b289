// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/sheetmirror/internal/logging"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name      string
		incoming  string
		expectOwn bool
	}{
		{"generated", "", false},
		{"propagated", "proxy-abc", true},
		{"oversized replaced", strings.Repeat("a", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromCtx string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromCtx = logging.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			header := rec.Header().Get(RequestIDHeader)
			if header == "" {
				t.Fatal("expected X-Request-ID response header")
			}
			if header != fromCtx {
				t.Errorf("expected context id %q to match header %q", fromCtx, header)
			}
			if tt.expectOwn && header != tt.incoming {
				t.Errorf("expected incoming id %q to be kept, got %q", tt.incoming, header)
			}
			if !tt.expectOwn && header == tt.incoming {
				t.Errorf("expected a generated id, got %q", header)
			}
		})
	}
}
