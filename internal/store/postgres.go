// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package store owns the UhaiLink PostgreSQL connection pool and schema
// migrations. Repositories live next to their domain packages and take the
// pool returned by Connect.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection defaults.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultRetryBase      = 250 * time.Millisecond
	maxRetryInterval      = 5 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool against databaseURL and waits up to timeout for the
// server to answer a ping, backing off exponentially between attempts.
func Connect(ctx context.Context, databaseURL string, timeout time.Duration) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, oops.Code("DB_URL_MISSING").Errorf("database URL is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_URL_INVALID").Wrap(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := WaitReady(ctx, pool, timeout, DefaultRetryBase); err != nil {
		pool.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "database connected",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database)
	return pool, nil
}

// WaitReady pings db until it answers, timeout elapses, or ctx ends.
func WaitReady(ctx context.Context, db Pinger, timeout, base time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	if base <= 0 {
		base = DefaultRetryBase
	}
	backoff := retry.WithMaxDuration(timeout,
		retry.WithCappedDuration(maxRetryInterval, retry.NewExponential(base)))

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := db.Ping(ctx); err != nil {
			slog.DebugContext(ctx, "database not ready", "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("attempts", attempts).
			With("timeout", timeout.String()).
			Wrap(err)
	}
	return nil
}

// Readiness returns a check that reports whether db answers a ping within
// timeout.
func Readiness(db Pinger, timeout time.Duration) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return db.Ping(ctx) == nil
	}
}
