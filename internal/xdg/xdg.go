// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg resolves the XDG Base Directory locations used by gridwatch.
// Config holds config.json, state holds the default SQLite database.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name created under each XDG base.
const AppName = "gridwatch"

// ConfigDir returns $XDG_CONFIG_HOME/gridwatch (or ~/.config/gridwatch),
// creating it with 0700 permissions.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns $XDG_STATE_HOME/gridwatch (or ~/.local/state/gridwatch),
// creating it with 0700 permissions.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(envVar, homeRel string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
