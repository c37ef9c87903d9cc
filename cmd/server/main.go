// Package main provides the entry point for the bibliometrics engine server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhonbg/quyca-sub001/internal/config"
	"github.com/jhonbg/quyca-sub001/internal/engine"
	"github.com/jhonbg/quyca-sub001/internal/enrich"
	"github.com/jhonbg/quyca-sub001/internal/hierarchy"
	"github.com/jhonbg/quyca-sub001/internal/metrics"
	"github.com/jhonbg/quyca-sub001/internal/observability"
	"github.com/jhonbg/quyca-sub001/internal/plots"
	"github.com/jhonbg/quyca-sub001/internal/products"
	httpserver "github.com/jhonbg/quyca-sub001/internal/server/http"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("bibliometrics engine starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *observability.Metrics
	if cfg.Metrics.Enabled {
		m = observability.NewMetrics("quyca")
	}

	db, err := store.Connect(ctx, cfg.Database, logger, m)
	if err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}
	defer func() {
		if closeErr := db.Close(context.Background()); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close store connection")
		}
	}()
	logger.Info().Msg("store connection established")

	maps, err := plots.LoadBaseMaps(cfg.Plots)
	if err != nil {
		return fmt.Errorf("load base maps: %w", err)
	}

	resolver := hierarchy.NewResolver(db, logger)
	runner := products.NewRunner(db, logger)
	reconciler := metrics.NewReconciler(db, logger)
	enricher := enrich.NewEnricher(db, logger, m)
	plotBuilder := plots.NewBuilder(db, resolver, reconciler, maps, cfg.Plots.NetworkNodeLimit, logger, m)

	eng := engine.New(db, resolver, runner, reconciler, enricher, plotBuilder, cfg.Engine.FanOutLimit, logger, m)

	srv := httpserver.NewServer(cfg.Server, cfg.Metrics, eng, db, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.HTTPPort).
		Msg("bibliometrics engine is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("bibliometrics engine shutdown complete")
	return nil
}
