// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gridwatch/internal/config"
	"gridwatch/internal/keychain"
	"gridwatch/internal/logging"
	"gridwatch/internal/nflverse"
	"gridwatch/internal/store"
)

// DSN sources reported by dbinfo.
const (
	sourceEnv      = "DATABASE_URL environment variable"
	sourceKeychain = "OS keychain"
	sourceConfig   = "config file"
	sourceDefault  = "default SQLite database"
)

var getKeychain = keychain.GetManager

var (
	templateFS fs.FS
	staticFS   fs.FS
)

// SetAssets registers the embedded templates and static files. TEMPLATE_DIR
// and STATIC_DIR override them at runtime; in development the templates and
// static directories of the working directory are used when present.
func SetAssets(templates, static fs.FS) {
	templateFS, staticFS = templates, static
}

func assets() (templates, static fs.FS) {
	templates, static = templateFS, staticFS
	if cfg.IsDevelopment() {
		if cfg.TemplateDir == "" && isDir("templates") {
			cfg.TemplateDir = "templates"
		}
		if cfg.StaticDir == "" && isDir("static") {
			cfg.StaticDir = "static"
		}
	}
	if cfg.TemplateDir != "" {
		templates = os.DirFS(cfg.TemplateDir)
	}
	if cfg.StaticDir != "" {
		static = os.DirFS(cfg.StaticDir)
	}
	return templates, static
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// resolveDSN picks the database: environment, then keychain, then the config
// file, then the SQLite default.
func resolveDSN() (dsn, source string, err error) {
	if env := strings.TrimSpace(os.Getenv("DATABASE_URL")); env != "" {
		return env, sourceEnv, nil
	}
	if km, err := getKeychain(); err == nil {
		if v, err := km.LoadDBDSN(); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), sourceKeychain, nil
		}
	}
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, sourceConfig, nil
	}
	def, err := config.DefaultDatabaseURL()
	if err != nil {
		return "", "", err
	}
	return def, sourceDefault, nil
}

// openStore connects to the resolved database, applying migrations when
// migrate is set.
func openStore(ctx context.Context, migrate bool) (*store.Store, error) {
	dsn, source, err := resolveDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	logger.Debug("Opening database", "source", source, "dsn", logging.MaskDSN(dsn))

	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if !migrate {
		return st, nil
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		logging.PresentDBError(err)
		return nil, err
	}
	return st, nil
}

func newNFLClient() *nflverse.Client {
	return nflverse.New(nflverse.Options{
		BaseURL: cfg.NFLVerseBaseURL,
		Timeout: cfg.HTTPTimeout,
		Season:  cfg.CurrentSeason,
	})
}
