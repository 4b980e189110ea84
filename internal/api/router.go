// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Roast-2007/morfonica/internal/config"
	"github.com/Roast-2007/morfonica/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	chiMw   *ChiMiddleware
}

// NewRouter builds a router for the given handler and server config.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.CORSOrigins
	if cfg.RateLimitReqs > 0 {
		mwConfig.RateLimitRequests = cfg.RateLimitReqs
	}
	if cfg.RateLimitWindow > 0 {
		mwConfig.RateLimitWindow = cfg.RateLimitWindow
	}

	return &Router{handler: handler, chiMw: NewChiMiddleware(mwConfig)}
}

// Setup wires all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(router.chiMw.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMw.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMw.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Route("/commands", func(r chi.Router) {
			r.Post("/search", router.handler.Search)
			r.Post("/ranking", router.handler.Ranking)
			r.Post("/recommended", router.handler.Recommended)
			r.Post("/author", router.handler.Author)
			r.Post("/favorites", router.handler.Favorites)
			r.Post("/next", router.handler.Next)
			r.Post("/favorite", router.handler.Favorite)
		})

		r.Get("/session", router.handler.Session)
		r.Get("/favorites", router.handler.FavoritesList)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeRouteNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	return r
}
