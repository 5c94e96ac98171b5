// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/collectag/collectag/internal/config"
	"github.com/collectag/collectag/internal/metrics"
)

// Router assembles the HTTP control surface.
type Router struct {
	cfg     config.ServerConfig
	handler *Handler
}

// NewRouter creates a router serving the given handler.
func NewRouter(cfg config.ServerConfig, handler *Handler) *Router {
	return &Router{cfg: cfg, handler: handler}
}

// Setup configures all HTTP routes using Chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(chimiddleware.RealIP)    // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer) // Recover from panics
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	// Health and Prometheus endpoints stay outside the rate limit so
	// monitoring can poll freely.
	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(100, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Use(prometheusMetrics)

		r.Get("/health", router.handler.Health)
		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", router.handler.SyncStatus)
			r.Post("/run", router.handler.SyncRun)
		})
	})

	return r
}

// prometheusMetrics records request counts and latency per route.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}

		metrics.APIRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(ww.Status())).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
