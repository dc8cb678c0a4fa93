// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridwatch/internal/collector"
	"gridwatch/internal/config"
	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/keychain"
	"gridwatch/internal/store"
)

func TestResolveDSNPrefersEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "  postgres://user:pw@db:5432/football  ")

	dsn, source, err := resolveDSN()
	if err != nil {
		t.Fatalf("resolveDSN: %v", err)
	}
	if dsn != "postgres://user:pw@db:5432/football" {
		t.Errorf("dsn = %q", dsn)
	}
	if source != sourceEnv {
		t.Errorf("source = %q, want %q", source, sourceEnv)
	}
}

func TestSaveDSNFallsBackToConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("DATABASE_URL", "")

	prev, prevCfg := getKeychain, cfg
	getKeychain = func() (*keychain.Manager, error) { return nil, errors.New("no keyring") }
	t.Cleanup(func() { getKeychain, cfg = prev, prevCfg })
	cfg = config.Defaults()

	const want = "postgres://user:pw@db:5432/football"
	where, err := saveDSN(want)
	if err != nil {
		t.Fatalf("saveDSN: %v", err)
	}
	if where != sourceConfig {
		t.Errorf("saved to %q, want %q", where, sourceConfig)
	}

	fi, err := os.Stat(filepath.Join(dir, "gridwatch", "config.json"))
	if err != nil {
		t.Fatalf("stat config file: %v", err)
	}
	if mode := fi.Mode().Perm(); mode != 0o600 {
		t.Errorf("config file mode = %o, want 600", mode)
	}

	cfg, err = config.LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	dsn, source, err := resolveDSN()
	if err != nil {
		t.Fatalf("resolveDSN: %v", err)
	}
	if dsn != want || source != sourceConfig {
		t.Errorf("resolveDSN() = %q from %q, want %q from %q", dsn, source, want, sourceConfig)
	}
}

func TestRowsOrError(t *testing.T) {
	tests := []struct {
		name string
		rows int
		err  error
		want string
	}{
		{"ok", 1734, nil, "1734 rows"},
		{"missing", 0, apperrors.New(apperrors.NotFound, "roster 2026 not published"), "not published"},
		{"timeout", 0, context.DeadlineExceeded, "timed out"},
		{"other", 0, errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rowsOrError(tt.rows, tt.err); got != tt.want {
				t.Errorf("rowsOrError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeSchema(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "info.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	before := describeSchema(ctx, st)
	if before[0] != "Backend:    sqlite" {
		t.Errorf("backend line = %q", before[0])
	}
	if !strings.Contains(before[1], "none applied") {
		t.Errorf("unmigrated schema line = %q", before[1])
	}

	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	after := describeSchema(ctx, st)
	if after[1] != "Migrations: 0001_init.sql, 0002_unique_games.sql" {
		t.Errorf("migrated schema line = %q", after[1])
	}
}

func TestCollectSummary(t *testing.T) {
	tests := []struct {
		name string
		res  collector.Result
		want string
	}{
		{"skipped", collector.Result{Players: 5, Linked: 3, Skipped: true}, "No new nflverse data for 3 linked players"},
		{
			"imported",
			collector.Result{Players: 5, Linked: 3, GamesImported: 12, HistoryRecorded: 12, DefenseCreated: 32},
			"3 of 5 players linked: 12 games imported, 12 history rows, 32 defenses created, 0 updated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collectSummary(tt.res); got != tt.want {
				t.Errorf("collectSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
