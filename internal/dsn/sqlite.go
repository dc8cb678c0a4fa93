// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net/url"
	"sort"
	"strings"
)

// SQLiteResolver handles SQLAlchemy-style SQLite URLs:
//
//	sqlite:///relative/path.db
//	sqlite:////absolute/path.db
//	sqlite:///:memory:
type SQLiteResolver struct{}

// NewSQLiteResolver creates a new SQLite resolver
func NewSQLiteResolver() *SQLiteResolver {
	return &SQLiteResolver{}
}

// Parse extracts the database file path and query parameters.
func (r *SQLiteResolver) Parse(dsn string) (*DSNInfo, error) {
	lower := strings.ToLower(dsn)
	var rest string
	switch {
	case strings.HasPrefix(lower, "sqlite:///"):
		rest = dsn[len("sqlite:///"):]
	case strings.HasPrefix(lower, "sqlite://"):
		return nil, NewParseError(dsn, "sqlite URL has a host component", "use sqlite:///relative.db or sqlite:////absolute.db")
	case strings.HasPrefix(lower, "sqlite:"):
		rest = dsn[len("sqlite:"):]
	default:
		return nil, NewParseError(dsn, "missing or invalid scheme", "use sqlite:///path")
	}

	path, query, _ := strings.Cut(rest, "?")
	if strings.TrimSpace(path) == "" {
		return nil, NewParseError(dsn, "missing database path", "use sqlite:///relative.db or sqlite:////absolute.db")
	}

	info := &DSNInfo{
		Type:     DBTypeSQLite,
		Database: path,
		Params:   make(map[string]string),
		Original: dsn,
	}
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return nil, NewParseError(dsn, "invalid query parameters", "")
		}
		for k, v := range values {
			if len(v) > 0 {
				info.Params[k] = v[0]
			}
		}
	}
	return info, nil
}

// Normalize returns the canonical sqlite:/// form.
func (r *SQLiteResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	out := "sqlite:///" + info.Database
	if len(info.Params) > 0 {
		keys := make([]string, 0, len(info.Params))
		for k := range info.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(info.Params[k]))
		}
		out += "?" + strings.Join(parts, "&")
	}
	return out, nil
}

// Validate checks the DSN parses.
func (r *SQLiteResolver) Validate(dsn string) error {
	_, err := r.Parse(dsn)
	return err
}
