// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package xdg resolves XDG Base Directory paths for uhailink.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "uhailink"

func baseDir(env string, fallback ...string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	parts := append([]string{os.Getenv("HOME")}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

// ConfigDir returns $XDG_CONFIG_HOME/uhailink, or ~/.config/uhailink.
func ConfigDir() string {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/uhailink, or ~/.local/share/uhailink.
func DataDir() string {
	return baseDir("XDG_DATA_HOME", ".local", "share")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
