// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/queuewatch/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires the handler into a chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	apiToken      string
}

// NewRouter creates a Router. An empty apiToken leaves command routes open.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, apiToken string) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		apiToken:      apiToken,
	}
}

// SetupChi builds the HTTP route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		// The metrics writer wrapper cannot be hijacked, so the websocket
		// route sits outside the instrumented group.
		r.Get("/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(middleware.PrometheusMetrics))

			r.Get("/health/live", router.handler.HealthLive)
			r.Get("/health/ready", router.handler.HealthReady)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Compress(5, "application/json"))
				r.Get("/status", router.handler.Status)
				r.Get("/queue/history", router.handler.QueueHistory)
				r.Get("/sessions", router.handler.Sessions)
				r.Get("/estimate", router.handler.Estimate)
			})

			r.Route("/commands", func(r chi.Router) {
				r.Use(chiMiddleware(middleware.RequireToken(router.apiToken)))
				r.Post("/start", router.handler.CommandStart)
				r.Post("/stop", router.handler.CommandStop)
				r.Post("/toggle-auto-restart", router.handler.CommandToggleAutoRestart)
				r.Post("/toggle-idle-prevention", router.handler.CommandToggleIdlePrevention)
				r.Post("/log-level", router.handler.CommandLogLevel)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
