// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/sheetmirror/internal/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/data/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	notFound := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/data/*", "404")
	ok := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/list", "200")
	beforeNotFound := testutil.ToFloat64(notFound)
	beforeOK := testutil.ToFloat64(ok)

	for _, path := range []string{"/data/1.json", "/data/2.json", "/list"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(notFound) - beforeNotFound; got != 2 {
		t.Errorf("expected 2 requests recorded under /data/*, got %v", got)
	}
	if got := testutil.ToFloat64(ok) - beforeOK; got != 1 {
		t.Errorf("expected 1 request recorded under /list, got %v", got)
	}
}

func TestPrometheusMetrics_StatusCapture(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		write    bool
		expected int
	}{
		{"implicit ok", 0, true, http.StatusOK},
		{"explicit created", http.StatusCreated, false, http.StatusCreated},
		{"server error", http.StatusInternalServerError, true, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *metricsResponseWriter
			handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = w.(*metricsResponseWriter)
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.write {
					_, _ = w.Write([]byte("x"))
				}
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

			if captured.statusCode != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, captured.statusCode)
			}
			if rec.Code != tt.expected {
				t.Errorf("expected recorder status %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestRoutePattern_Unmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Errorf("expected unmatched, got %s", got)
	}
}
