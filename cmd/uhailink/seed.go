// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/uhailink/uhailink/internal/directory"
)

// Default timeout for one-shot database commands.
const defaultCommandTimeout = 30 * time.Second

// dbConnector opens the database for one-shot commands.
type dbConnector func(ctx context.Context, url string, timeout time.Duration) (DB, error)

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	return newSeedCmd(defaultDBConnector)
}

func newSeedCmd(connect dbConnector) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the emergency services directory",
		Long: `Inserts a starter set of Kenyan emergency organizations.
This command is idempotent - organizations that already exist are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, connect, timeout, func(ctx context.Context, db DB) error {
				seed := directory.KenyaOrganizations()
				inserted, err := newDirectoryService(db).Seed(ctx, seed)
				if err != nil {
					return oops.Code("SEED_FAILED").With("operation", "seed organizations").Wrap(err)
				}
				if inserted == 0 {
					cmd.Println("Directory already seeded")
				} else {
					cmd.Printf("Added %d of %d organizations\n", inserted, len(seed))
				}
				slog.InfoContext(ctx, "directory seeded", "inserted", inserted, "total", len(seed))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultCommandTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

// withDB loads configuration, connects, and runs fn under timeout. The
// command context is the parent so SIGINT still interrupts.
func withDB(cmd *cobra.Command, connect dbConnector, timeout time.Duration, fn func(context.Context, DB) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	db, err := connect(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db)
}
