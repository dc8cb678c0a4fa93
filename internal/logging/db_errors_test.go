// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"strings"
	"testing"

	apperrors "gridwatch/internal/errors"
)

func TestClassifyDBError(t *testing.T) {
	tests := []struct {
		msg  string
		want DBErrorType
	}{
		{"dial tcp 127.0.0.1:5432: connect: connection refused", DBErrorRefused},
		{"FATAL: password authentication failed for user \"football_user\" (SQLSTATE 28P01)", DBErrorAuth},
		{"context deadline exceeded", DBErrorTimeout},
		{"FATAL: database \"football_analytics\" does not exist (SQLSTATE 3D000)", DBErrorMissingDatabase},
		{"unable to open database file: no such file or directory", DBErrorFile},
		{"something odd", DBErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := ClassifyDBError(tt.msg); got != tt.want {
				t.Errorf("ClassifyDBError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDBErrorMasksDetails(t *testing.T) {
	out := FormatDBError("failed to connect to postgres://u:hunter2@db/app: connection refused")
	if strings.Contains(out, "hunter2") {
		t.Errorf("password leaked: %s", out)
	}
	if !strings.Contains(out, "refused the connection") {
		t.Errorf("missing refused hint: %s", out)
	}
}

func TestPresentError(t *testing.T) {
	typed := apperrors.Wrap(apperrors.Upstream, "nflverse unavailable", errors.New("GET https://x?token=abc"))
	if got := PresentError("search", typed); got != "search: nflverse unavailable" {
		t.Errorf("PresentError(typed) = %q", got)
	}
	if got := PresentError("connect", errors.New("password=s3cret")); got != "connect: password=***" {
		t.Errorf("PresentError(plain) = %q", got)
	}
	if got := PresentError("x", nil); got != "" {
		t.Errorf("PresentError(nil) = %q", got)
	}
}
