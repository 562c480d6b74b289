// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/sheetmirror/internal/config"
)

// mockHTTPServer is a test double for HTTPServer.
type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	listens     atomic.Int32
	shutdowns   atomic.Int32
	listening   chan struct{}
	stopCh      chan struct{}
	stopOnce    sync.Once
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		listening: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listens.Add(1)
	select {
	case m.listening <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	m.shutdowns.Add(1)
	m.stopOnce.Do(func() { close(m.stopCh) })
	return m.shutdownErr
}

func TestHTTPServerService_Interface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
}

func TestNewHTTPServerService_DefaultTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		expected time.Duration
	}{
		{"explicit", 3 * time.Second, 3 * time.Second},
		{"zero", 0, 10 * time.Second},
		{"negative", -time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHTTPServerService(newMockHTTPServer(), tt.timeout)
			if svc.shutdownTimeout != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, svc.shutdownTimeout)
			}
		})
	}
}

func TestNewHTTPServer(t *testing.T) {
	handler := http.NotFoundHandler()
	srv := NewHTTPServer(&config.ServerConfig{
		Host:    "127.0.0.1",
		Port:    8000,
		Timeout: 30 * time.Second,
	}, handler)

	if srv.Addr != "127.0.0.1:8000" {
		t.Errorf("expected addr 127.0.0.1:8000, got %s", srv.Addr)
	}
	if srv.WriteTimeout != 30*time.Second || srv.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s read/write timeouts, got %v/%v", srv.ReadTimeout, srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Error("expected ReadHeaderTimeout to be set")
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("shuts down on cancellation", func(t *testing.T) {
		server := newMockHTTPServer()
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		select {
		case <-server.listening:
		case <-time.After(time.Second):
			t.Fatal("server did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("expected 1 Shutdown call, got %d", server.shutdowns.Load())
		}
	})

	t.Run("returns listen error", func(t *testing.T) {
		listenErr := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		server.listenErr = listenErr

		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if !errors.Is(err, listenErr) {
			t.Errorf("expected %v, got %v", listenErr, err)
		}
	})

	t.Run("returns shutdown error", func(t *testing.T) {
		shutdownErr := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()
		<-server.listening
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, shutdownErr) {
				t.Errorf("expected shutdown error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}

func TestHTTPServerService_String(t *testing.T) {
	if got := NewHTTPServerService(newMockHTTPServer(), time.Second).String(); got != "http-server" {
		t.Errorf("expected 'http-server', got %q", got)
	}
}
