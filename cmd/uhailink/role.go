// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/uhailink/uhailink/internal/access"
)

// NewRoleCmd creates the role subcommand.
func NewRoleCmd() *cobra.Command {
	return newRoleCmd(defaultDBConnector)
}

func newRoleCmd(connect dbConnector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage user roles",
	}

	var timeout time.Duration
	set := &cobra.Command{
		Use:   "set USER_ID ROLE",
		Short: "Set a user's role (admin or user)",
		Long: `Set a user's role. Use this to bootstrap the first administrator;
later changes can be made through the admin API.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := ulid.Parse(args[0])
			if err != nil {
				return oops.Code("USER_ID_INVALID").With("user_id", args[0]).Errorf("invalid user ID %q", args[0])
			}
			role, err := access.ParseRole(args[1])
			if err != nil {
				return err
			}
			return withDB(cmd, connect, timeout, func(ctx context.Context, db DB) error {
				if err := newProfileService(db, nil).SetRole(ctx, userID, role); err != nil {
					return err
				}
				cmd.Printf("Set role of %s to %s\n", userID, role)
				slog.InfoContext(ctx, "role set", "user_id", userID.String(), "role", role.String())
				return nil
			})
		},
	}
	set.Flags().DurationVar(&timeout, "timeout", defaultCommandTimeout, "timeout for database operations")
	cmd.AddCommand(set)

	return cmd
}
