// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/sheetmirror/internal/middleware"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, chiMiddleware *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMiddleware,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.With(router.chiMiddleware.RateLimitHealth(), APISecurityHeaders()).
		Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/list", router.handler.List)
		r.Get("/state", router.handler.State)
		r.Method(http.MethodGet, "/data/*", router.handler.Data())
		r.Method(http.MethodHead, "/data/*", router.handler.Data())
	})

	r.With(router.chiMiddleware.RateLimitSync(), APISecurityHeaders()).
		Post("/sync", router.handler.TriggerSync)

	return r
}
