// Package main is the entry point for markerd, the marker-management
// service for a media library: it tracks intro/credits/commercial time
// markers on episodes and movies, reconciling a durable action log against
// the library database and serving an HTTP dispatcher over both.
//
// # Application Architecture
//
// main initializes components in order:
//
//  1. Configuration: Koanf v2, layered defaults -> config file -> env vars.
//  2. Logging: zerolog, configured from the loaded log level.
//  3. Engine: opens the library DB, the action log, the marker cache, and
//     (if backup_actions is enabled) the Purge Reconciler's background
//     supervisor.
//  4. HTTP server: chi router exposing the 17 wire operations.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server stops
// accepting new connections, in-flight requests get 10s to finish, and the
// engine closes its library DB, action log, and reconciler supervisor.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sceneindex/markerd/internal/api"
	"github.com/sceneindex/markerd/internal/config"
	"github.com/sceneindex/markerd/internal/engine"
	"github.com/sceneindex/markerd/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "json", Timestamp: true})
	logging.Info().
		Str("database_path", cfg.DatabasePath).
		Bool("backup_actions", cfg.BackupActions).
		Bool("extended_marker_stats", cfg.ExtendedMarkerStats).
		Msg("starting markerd")

	svc, err := engine.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize marker engine")
	}
	defer func() {
		if err := svc.Shutdown(); err != nil {
			logging.Error().Err(err).Msg("error during engine shutdown")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      api.NewRouter(svc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown did not complete in time")
		if closeErr := server.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("error forcing server close")
		}
	}

	logging.Info().Msg("markerd stopped")
}
