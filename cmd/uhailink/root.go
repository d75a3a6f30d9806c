// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/uhailink/uhailink/internal/config"
	"github.com/uhailink/uhailink/internal/logging"
)

const serviceName = "uhailink"

// NewRootCmd creates the root command for the UhaiLink CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uhailink",
		Short: "UhaiLink - emergency medical profiles and first-aid assistance",
		Long: `UhaiLink keeps emergency medical profiles behind scannable QR codes,
lists emergency services, and answers first-aid questions through an
assistant that falls back to offline guides.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewRoleCmd())
	cmd.AddCommand(NewAskCmd())

	return cmd
}

// loadConfig resolves configuration for cmd and installs the default
// logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.SetDefault(serviceName, version, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}
