// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package api provides HTTP routing using Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires the middleware stack and handlers into a chi router.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates the API router.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: middleware,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS()) // global so OPTIONS preflight is handled before auth

	// Health endpoints: no auth, no rate limit, polled frequently.
	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", promhttp.Handler())

	// Data endpoints: authenticated, rate limited, time bounded.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(router.middleware.Timeout())
		r.Use(PrometheusMetrics)
		r.Use(router.middleware.Authenticate)

		r.Get("/recommendations", router.handler.Recommendations)
		r.Get("/wrapped", router.handler.Wrapped)
		r.Get("/profile", router.handler.Profile)
		r.Post("/listens", router.handler.RecordListen)
		r.Delete("/me", router.handler.DeleteUserData)
	})

	return r
}
