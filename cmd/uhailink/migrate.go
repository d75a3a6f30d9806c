// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// migratorFactory opens a migrator for the configured database.
type migratorFactory func(url string) (Migrator, error)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(defaultMigratorFactory)
}

func newMigrateCmd(factory migratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, or inspect the PostgreSQL schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, factory, func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "list pending").Wrap(err)
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				if err := m.Up(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "migrate up").Wrap(err)
				}
				cmd.Printf("Applied %d migration(s)\n", len(pending))
				return nil
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  `Roll back the most recent migration, or --all to roll back everything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all") //nolint:errcheck // flag is registered below
			return withMigrator(cmd, factory, func(m Migrator) error {
				if all {
					if err := m.Down(); err != nil {
						return oops.Code("MIGRATION_FAILED").With("operation", "migrate down").Wrap(err)
					}
					cmd.Println("Rolled back all migrations")
					return nil
				}
				if steps < 1 {
					return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("steps must be at least 1")
				}
				if err := m.Steps(-steps); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "migrate down").With("steps", steps).Wrap(err)
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.Flags().Bool("all", false, "roll back every migration")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, factory, func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
				}
				if dirty {
					cmd.Printf("%d (dirty)\n", v)
					return nil
				}
				cmd.Println(v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use this to
recover after a failed migration has been repaired by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, factory, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "force version").With("version", v).Wrap(err)
				}
				cmd.Printf("Forced schema version to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator loads configuration, opens a migrator, runs fn, and closes it.
func withMigrator(cmd *cobra.Command, factory migratorFactory, fn func(Migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	m, err := factory(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("warning: failed to close migrator: %v\n", closeErr)
		}
	}()
	return fn(m)
}

// parseForceVersion reads a version argument. Leading whitespace is
// skipped and parsing stops at the first non-digit.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer, got %q", s)
	}
	return v, nil
}
