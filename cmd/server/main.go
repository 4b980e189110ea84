// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// Package main is the entry point for the Morfonica server.
//
// Morfonica turns Pixiv browsing into a conversational command flow: a chat
// frontend POSTs commands (search, ranking, recommended, author, favorites,
// next, favorite) to the HTTP API, and the service streams filtered pages of
// illustrations back through a delivery webhook while keeping one browse
// session per user.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Favorites store: BadgerDB key-value store for per-user favorites
//  3. Pixiv client: rate-limited app-API client wrapped in a circuit breaker
//  4. Browse layer: in-memory session store, content filter, and controller
//  5. HTTP server: Chi router with the command API and Prometheus metrics
//  6. Supervisor tree: suture-managed API and maintenance layers
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (PIXIV_REFRESH_TOKEN, BOT_PAGE_SIZE, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the favorites database
//
// # Example Usage
//
// Development run with console logging:
//
//	export PIXIV_REFRESH_TOKEN=your-refresh-token
//	export DELIVERY_WEBHOOK_URL=http://localhost:9000/messages
//	export LOG_FORMAT=console
//	./morfonica
//
// Permissive filtering (adult and AI-generated works allowed):
//
//	export FILTER_ALLOW_ADULT=true
//	export FILTER_ALLOW_AI=true
//	./morfonica
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Roast-2007/morfonica/internal/api"
	"github.com/Roast-2007/morfonica/internal/browse"
	"github.com/Roast-2007/morfonica/internal/config"
	"github.com/Roast-2007/morfonica/internal/delivery"
	"github.com/Roast-2007/morfonica/internal/favorites"
	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/pixiv"
	"github.com/Roast-2007/morfonica/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("page_size", cfg.Bot.PageSize).
		Bool("allow_adult", cfg.Filter.AllowAdult).
		Bool("allow_ai", cfg.Filter.AllowAI).
		Msg("Configuration loaded")

	favStore, favDB, err := favorites.Open(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open favorites database")
	}
	defer func() {
		if err := favDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing favorites database")
		}
	}()
	logging.Info().Msg("Favorites database opened")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pixiv client with a circuit breaker so upstream outages fail fast
	// instead of tying up command handlers.
	client := pixiv.NewClient(cfg.Pixiv)
	if err := client.Authenticate(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to authenticate with Pixiv")
	}
	logging.Info().Msg("Authenticated with Pixiv")
	pixivAPI := pixiv.NewCircuitBreakerClient(client)

	sessions := browse.NewStore()
	policy := browse.Policy{
		AllowAdult: cfg.Filter.AllowAdult,
		AllowAI:    cfg.Filter.AllowAI,
	}
	sender := delivery.NewWebhookSender(cfg.Delivery)
	controller := browse.NewController(pixivAPI, sessions, favStore, sender, policy, cfg.Bot.PageSize)

	handler := api.NewHandler(controller, favStore)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor events are logged through zerolog via the slog adapter.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	janitor := browse.NewJanitor(sessions, cfg.Bot.SessionTTL, cfg.Bot.JanitorInterval)
	tree.AddMaintenanceService(janitor)
	logging.Info().
		Dur("ttl", cfg.Bot.SessionTTL).
		Dur("interval", cfg.Bot.JanitorInterval).
		Msg("Session janitor added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
