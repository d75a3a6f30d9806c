// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/uhailink/uhailink/internal/store"
)

// Status is the combined schema and server health report.
type Status struct {
	Schema SchemaStatus `json:"schema"`
	Server ServerStatus `json:"server"`
}

// SchemaStatus describes the database schema.
type SchemaStatus struct {
	Version uint     `json:"version"`
	Latest  uint     `json:"latest"`
	Dirty   bool     `json:"dirty"`
	Applied []string `json:"applied"`
	Pending []string `json:"pending"`
	Error   string   `json:"error,omitempty"`
}

// ServerStatus describes a running server as seen through its health
// endpoints.
type ServerStatus struct {
	Addr  string `json:"addr,omitempty"`
	Live  bool   `json:"live"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return newStatusCmd(defaultMigratorFactory, http.DefaultClient)
}

func newStatusCmd(factory migratorFactory, client *http.Client) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show schema and server status",
		Long: `Show the database schema version with applied and pending migrations,
and the liveness and readiness of a running server's health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st := Status{Server: queryServerStatus(cmd.Context(), client, conf.Metrics.Addr, cfg.timeout)}
			if conf.Database.URL == "" {
				st.Schema.Error = "database URL not configured"
			} else {
				st.Schema = querySchemaStatus(factory, conf.Database.URL)
			}

			if cfg.jsonOutput {
				out, err := formatStatusJSON(st)
				if err != nil {
					return err
				}
				cmd.Println(out)
				return nil
			}
			cmd.Print(formatStatusTable(st))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 2*time.Second, "timeout for each health probe")

	return cmd
}

func querySchemaStatus(factory migratorFactory, url string) SchemaStatus {
	var st SchemaStatus
	latest, err := store.LatestVersion()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Latest = latest

	m, err := factory(url)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	defer func() { _ = m.Close() }() //nolint:errcheck // read-only use

	if st.Version, st.Dirty, err = m.Version(); err != nil {
		st.Error = err.Error()
		return st
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Applied = migrationNames(applied)
	st.Pending = migrationNames(pending)
	return st
}

func migrationNames(versions []uint) []string {
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			name = fmt.Sprintf("%06d", v)
		}
		names = append(names, name)
	}
	return names
}

// queryServerStatus probes the health endpoints served on addr.
func queryServerStatus(ctx context.Context, client *http.Client, addr string, timeout time.Duration) ServerStatus {
	st := ServerStatus{Addr: addr}
	if addr == "" {
		st.Error = "metrics address not configured"
		return st
	}
	if ctx == nil {
		ctx = context.Background()
	}

	probe := func(path string) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, http.NoBody)
		if err != nil {
			return false, oops.Code("STATUS_PROBE_INVALID").With("addr", addr).Wrap(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, err
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK, nil
	}

	live, err := probe("/healthz/liveness")
	if err != nil {
		st.Error = fmt.Sprintf("failed to connect: %v", err)
		return st
	}
	st.Live = live
	if st.Ready, err = probe("/healthz/readiness"); err != nil {
		st.Error = fmt.Sprintf("readiness probe failed: %v", err)
	}
	return st
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(st Status) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATE\tDETAIL")
	_, _ = fmt.Fprintln(w, "---------\t-----\t------")

	switch {
	case st.Schema.Error != "":
		_, _ = fmt.Fprintf(w, "schema\tunknown\t%s\n", st.Schema.Error)
	case st.Schema.Dirty:
		_, _ = fmt.Fprintf(w, "schema\tdirty\tversion %d needs repair (see migrate force)\n", st.Schema.Version)
	case len(st.Schema.Pending) > 0:
		_, _ = fmt.Fprintf(w, "schema\tbehind\tversion %d of %d, pending: %s\n",
			st.Schema.Version, st.Schema.Latest, strings.Join(st.Schema.Pending, ", "))
	default:
		_, _ = fmt.Fprintf(w, "schema\tcurrent\tversion %d\n", st.Schema.Version)
	}

	switch {
	case st.Server.Error != "":
		_, _ = fmt.Fprintf(w, "server\tstopped\t%s\n", st.Server.Error)
	case st.Server.Ready:
		_, _ = fmt.Fprintf(w, "server\tready\t%s\n", st.Server.Addr)
	case st.Server.Live:
		_, _ = fmt.Fprintf(w, "server\tnot ready\t%s\n", st.Server.Addr)
	default:
		_, _ = fmt.Fprintf(w, "server\tunhealthy\t%s\n", st.Server.Addr)
	}

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(st Status) (string, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_ENCODE_FAILED").Wrap(err)
	}
	return string(data), nil
}
