// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/sheetmirror/internal/config"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// NewChiMiddlewareConfig derives the middleware settings from the server config.
// A rate limit of 0 requests disables limiting.
func NewChiMiddlewareConfig(cfg *config.ServerConfig) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.CORSOrigins,
		CORSAllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: cfg.RateLimitReqs,
		RateLimitWindow:   cfg.RateLimitWindow,
		RateLimitDisabled: cfg.RateLimitReqs == 0,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware builds the CORS handler once and keeps the rate limit settings.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         cfg.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors middleware. The snapshot viewer is usually
// served from another origin, so this must be global to answer preflights.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit applies the configured per-IP limit, or nothing when it is disabled.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passThrough
	}
	return m.RateLimitCustom(RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitConfig defines rate limit parameters for specific endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

var (
	// RateLimitSync guards the manual sync trigger; every call costs one
	// token refresh plus one upstream request per sheet.
	RateLimitSync = RateLimitConfig{Requests: 6, Window: time.Minute}

	// RateLimitHealth is permissive so monitors can poll freely.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimitCustom returns a per-IP limiter for config, or a no-op for a zero
// config. Endpoint limits stay active when the general limit is disabled.
func (m *ChiMiddleware) RateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.Requests <= 0 || config.Window <= 0 {
		return passThrough
	}
	return httprate.LimitByIP(config.Requests, config.Window)
}

func passThrough(next http.Handler) http.Handler {
	return next
}

// RateLimitSync returns the limiter for POST /sync.
func (m *ChiMiddleware) RateLimitSync() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitSync)
}

// RateLimitHealth returns the limiter for /healthz.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// APISecurityHeaders adds headers suited to JSON responses.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}
