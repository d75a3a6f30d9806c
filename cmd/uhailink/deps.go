// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/internal/observability"
	"github.com/uhailink/uhailink/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DBConnector opens the database.
	// Default: store.Connect
	DBConnector func(ctx context.Context, url string, timeout time.Duration) (DB, error)

	// MigratorFactory creates a migrator for auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// Streamer produces assistant completions.
	// Default: chat.NewClient from the chat configuration
	Streamer chat.Streamer

	// HTTPRunner serves the public handler until ctx ends.
	// Default: (*web.Server).Run
	HTTPRunner func(ctx context.Context, srv HTTPServer) error
}

// DB is the database handle the repositories share.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	Registerer() prometheus.Registerer
}

// HTTPServer wraps the methods used from web.Server.
type HTTPServer interface {
	Run(ctx context.Context) error
}

func defaultDBConnector(ctx context.Context, url string, timeout time.Duration) (DB, error) {
	pool, err := store.Connect(ctx, url, timeout)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func defaultMigratorFactory(url string) (Migrator, error) {
	m, err := store.NewMigrator(url)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DBConnector == nil {
		out.DBConnector = defaultDBConnector
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = defaultMigratorFactory
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	if out.HTTPRunner == nil {
		out.HTTPRunner = func(ctx context.Context, srv HTTPServer) error { return srv.Run(ctx) }
	}
	return &out
}
