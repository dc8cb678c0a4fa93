// Package config loads gridwatch settings from the XDG config file, a .env file
// and the process environment, in increasing order of precedence.
// Only non-secret settings are persisted; secrets go to the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gridwatch/internal/xdg"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds gridwatch settings.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty" env:"DATABASE_URL"`
	SecretKey   string `json:"-" env:"SECRET_KEY"`

	Host string `json:"host" env:"HOST"`
	Port int    `json:"port" env:"PORT"`

	// AppEnv falls back to FLASK_ENV so the container contract keeps working.
	AppEnv   string `json:"app_env" env:"APP_ENV"`
	FlaskEnv string `json:"-" env:"FLASK_ENV"`

	LogLevel  string `json:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" env:"LOG_FORMAT"`

	CollectInterval time.Duration `json:"collect_interval" env:"COLLECT_INTERVAL"`
	AnalyzeInterval time.Duration `json:"analyze_interval" env:"ANALYZE_INTERVAL"`
	DBRetryDelay    time.Duration `json:"db_retry_delay" env:"DB_RETRY_DELAY"`

	CurrentSeason   int           `json:"current_season" env:"CURRENT_SEASON"`
	NFLVerseBaseURL string        `json:"nflverse_base_url" env:"NFLVERSE_BASE_URL"`
	HTTPTimeout     time.Duration `json:"http_timeout" env:"HTTP_TIMEOUT"`

	AdminPassword string `json:"-" env:"ADMIN_PASSWORD"`

	// TemplateDir, when set, makes the web layer read templates from disk.
	TemplateDir string `json:"template_dir,omitempty" env:"TEMPLATE_DIR"`
	StaticDir   string `json:"static_dir,omitempty" env:"STATIC_DIR"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            5000,
		AppEnv:          "production",
		LogLevel:        "info",
		LogFormat:       "text",
		CollectInterval: 6 * time.Hour,
		AnalyzeInterval: 12 * time.Hour,
		DBRetryDelay:    10 * time.Second,
		CurrentSeason:   2025,
		NFLVerseBaseURL: "https://github.com/nflverse/nflverse-data/releases/download",
		HTTPTimeout:     30 * time.Second,
		AdminPassword:   "admin123",
	}
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Addr returns host:port for the web server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file (missing file means defaults), then .env, then
// the environment.
func Load() (Config, error) {
	c := Defaults()
	p, err := path()
	if err != nil {
		return c, err
	}
	if err := readFile(p, &c); err != nil {
		return c, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}
	if err := ParseEnv(&c); err != nil {
		return c, err
	}
	c.applyFallbacks()
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

// validate rejects durations the services cannot run with.
func (c Config) validate() error {
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"COLLECT_INTERVAL", c.CollectInterval},
		{"ANALYZE_INTERVAL", c.AnalyzeInterval},
		{"HTTP_TIMEOUT", c.HTTPTimeout},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	return nil
}

func readFile(p string, c *Config) error {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", p, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyFallbacks() {
	if os.Getenv("APP_ENV") == "" && c.FlaskEnv != "" {
		c.AppEnv = c.FlaskEnv
	}
	if c.IsDevelopment() && os.Getenv("LOG_LEVEL") == "" {
		c.LogLevel = "debug"
	}
}

// DefaultDatabaseURL returns the SQLite database under the XDG state dir.
func DefaultDatabaseURL() (string, error) {
	dir, err := xdg.StateDir()
	if err != nil {
		return "", err
	}
	return "sqlite:///" + filepath.Join(dir, "football_analytics.db"), nil
}

// LoadFile returns the defaults overlaid with the config file only, the view
// Save should start from so environment values are not persisted.
func LoadFile() (Config, error) {
	c := Defaults()
	p, err := path()
	if err != nil {
		return c, err
	}
	return c, readFile(p, &c)
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
