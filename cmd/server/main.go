// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

// Package main is the entry point for the Collectag server.
//
// Collectag keeps Jellyfin item tags in sync with collection membership.
// Each item belonging to a tagged collection carries a prefixed tag named
// after the collection, and tags with the managed prefix that no longer
// match a membership are removed. Runs are idempotent: a second pass over
// a converged library writes nothing.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from environment variables and config file (Koanf v2)
//  2. Jellyfin client: REST client with circuit breaker and rate limiting
//  3. Scheduler: interval-based sync runs with manual and scan-completion triggers
//  4. WebSocket listener (optional): reacts to Jellyfin library scan completion
//  5. HTTP server: health, metrics, and sync control endpoints (Chi)
//
// All long-running components run under a suture supervisor tree and are
// restarted with backoff on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required settings:
//   - JELLYFIN_URL: Jellyfin server URL (e.g. http://localhost:8096)
//   - JELLYFIN_API_KEY: API key from Jellyfin Dashboard > API Keys
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Cancels any running sync pass and closes the WebSocket listener
//
// # Example Usage
//
//	export JELLYFIN_URL=http://localhost:8096
//	export JELLYFIN_API_KEY=your-jellyfin-api-key
//	export SYNC_INTERVAL=6h
//	export SYNC_TAG_ALL_COLLECTIONS=true
//	./collectag
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collectag/collectag/internal/api"
	"github.com/collectag/collectag/internal/config"
	"github.com/collectag/collectag/internal/logging"
	"github.com/collectag/collectag/internal/scheduler"
	"github.com/collectag/collectag/internal/supervisor"
	"github.com/collectag/collectag/internal/supervisor/services"
	"github.com/collectag/collectag/internal/sync"
	"github.com/collectag/collectag/internal/tagsync"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

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

	logging.Info().Str("version", Version).Msg("Starting Collectag")
	logging.Info().
		Str("jellyfin_url", cfg.Jellyfin.URL).
		Dur("sync_interval", cfg.Sync.Interval).
		Str("tag_prefix", cfg.Sync.TagPrefix).
		Bool("tag_all_collections", cfg.Sync.TagAllCollections).
		Bool("update_on_scan", cfg.Sync.UpdateOnScan).
		Msg("Configuration loaded")

	// Jellyfin client with circuit breaker for fault tolerance. The
	// breaker prevents hammering an unavailable server mid-run.
	client := sync.NewJellyfinCircuitBreakerClient(sync.JellyfinCircuitBreakerConfig{
		BaseURL:           cfg.Jellyfin.URL,
		APIKey:            cfg.Jellyfin.APIKey,
		UserID:            cfg.Jellyfin.UserID,
		RequestsPerSecond: cfg.Jellyfin.RequestsPerSecond,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := client.Ping(pingCtx); err != nil {
		logging.Warn().Err(err).Msg("Failed to connect to Jellyfin (will retry)")
	} else if info, err := client.GetSystemInfo(pingCtx); err == nil {
		logging.Info().
			Str("server_name", info.ServerName).
			Str("server_version", info.Version).
			Msg("Connected to Jellyfin")
	}
	pingCancel()

	library := sync.NewJellyfinLibrary(client)

	// A fresh runner per run so progress reports reach the right run's sink.
	schedLogger := logging.Logger()
	sched := scheduler.NewScheduler(cfg.Sync, func(progress tagsync.ProgressFunc) scheduler.SyncRunner {
		return tagsync.NewRunner(library, library, logging.Logger(), progress)
	}, &schedLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddSyncService(services.NewSchedulerService(sched))

	// The WebSocket listener only matters when scan-triggered runs are
	// enabled; without it the interval timer is the sole driver.
	if cfg.Sync.UpdateOnScan {
		wsURL, err := client.GetWebSocketURL()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to build Jellyfin WebSocket URL")
		}
		wsClient := sync.NewJellyfinWebSocketClient(wsURL, cfg.Jellyfin.APIKey)
		wsClient.SetCallbacks(sched.OnLibraryScanCompleted, nil)
		tree.AddSyncService(services.NewWebSocketListenerService(wsClient))
		logging.Info().Msg("Library scan listener enabled")
	}

	handler := api.NewHandler(sched, client, Version)
	router := api.NewRouter(cfg.Server, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

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

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor finishes shutting down
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
