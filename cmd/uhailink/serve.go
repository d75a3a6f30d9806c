// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/uhailink/uhailink/internal/config"
	"github.com/uhailink/uhailink/internal/observability"
	"github.com/uhailink/uhailink/internal/store"
)

// readinessTimeout bounds the database ping behind /healthz/readiness.
const readinessTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the UhaiLink HTTP server",
		Long: `Start the public HTTP server: the JSON API, guarded pages, QR codes,
the emergency responder view, and the first-aid assistant relay.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cmd, cfg, nil)
		},
	}
}

// runServeWithDeps runs the server until ctx ends or a signal arrives.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.InfoContext(ctx, "starting uhailink", "version", version, "http_addr", cfg.HTTP.Addr)

	db, err := deps.DBConnector(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.InfoContext(ctx, "connected to database")

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(deps, cfg.Database.URL); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		reg         prometheus.Registerer = prometheus.NewRegistry()
		httpMetrics *observability.Metrics
		obsServer   ObservabilityServer
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, store.Readiness(db, readinessTimeout))
		reg = obsServer.Registerer()
		httpMetrics = obsServer.Metrics()
	}

	a, err := newApp(cfg, db, deps.Streamer, reg, httpMetrics)
	if err != nil {
		return err
	}

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer shutdownCancel()
			if err := obsServer.Stop(shutdownCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	go a.auth.RunPurger(ctx, cfg.Session.PurgeInterval)

	cmd.Println("UhaiLink server started")
	if err := deps.HTTPRunner(ctx, a.web); err != nil {
		return err
	}
	slog.InfoContext(ctx, "shutdown complete")
	return nil
}

// autoMigrate applies pending migrations before serving.
func autoMigrate(deps *ServeDeps, url string) error {
	m, err := deps.MigratorFactory(url)
	if err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	if err := m.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	slog.Info("database migrations applied")
	return nil
}

// monitorServerErrors cancels the process context when a background
// server fails. It exits when the channel closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
