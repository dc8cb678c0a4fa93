// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSecureHandlerRedacts(t *testing.T) {
	tests := []struct {
		name    string
		attrs   []any
		key     string
		want    string
		notWant string
	}{
		{
			name:  "password key",
			attrs: []any{"password", "admin123"},
			key:   "password",
			want:  MaskValue,
		},
		{
			name:  "keyword inside key",
			attrs: []any{"session_secret", "abc"},
			key:   "session_secret",
			want:  MaskValue,
		},
		{
			name:  "jwt value",
			attrs: []any{"value", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln"},
			key:   "value",
			want:  MaskValue,
		},
		{
			name:    "dsn value masked not redacted",
			attrs:   []any{"database", "postgres://u:hunter2@db:5432/app"},
			key:     "database",
			want:    "postgres://*:*@db:5432/app",
			notWant: "hunter2",
		},
		{
			name:    "error value masked",
			attrs:   []any{"err", errors.New("dial postgres://u:hunter2@db/app")},
			key:     "err",
			notWant: "hunter2",
		},
		{
			name:  "plain value kept",
			attrs: []any{"players", 42},
			key:   "players",
			want:  "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, "info", "json")
			logger.Info("event", tt.attrs...)

			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("unmarshal log line: %v", err)
			}
			got := jsonString(rec[tt.key])
			if tt.want != "" && got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(buf.String(), tt.notWant) {
				t.Errorf("log line leaked %q: %s", tt.notWant, buf.String())
			}
		})
	}
}

func TestSecureHandlerWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "text").With("token", "t0k3n").WithGroup("req")
	logger.Debug("login", slog.Group("form", slog.String("password", "pw")))

	out := buf.String()
	if strings.Contains(out, "t0k3n") || strings.Contains(out, "=pw") {
		t.Errorf("secret leaked: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func jsonString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		b, _ := json.Marshal(x)
		return string(b)
	}
	return ""
}
