// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn parses and normalizes the database connection strings gridwatch
// accepts: PostgreSQL URLs for production and SQLAlchemy-style sqlite:/// URLs
// for development and tests.
package dsn

import "fmt"

// DBType names a supported database engine.
type DBType string

const (
	DBTypePostgreSQL DBType = "postgresql"
	DBTypeSQLite     DBType = "sqlite"
	DBTypeUnknown    DBType = "unknown"
)

// DSNInfo is a parsed DATABASE_URL. SQLite URLs fill only Type, Database
// (the file path) and Params.
type DSNInfo struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

func (d *DSNInfo) String() string { return d.Original }

// Resolver handles one URL scheme family.
type Resolver interface {
	Parse(dsn string) (*DSNInfo, error)
	// Normalize renders info back into the canonical URL the store opens.
	Normalize(info *DSNInfo) (string, error)
	Validate(dsn string) error
}

// ParseError explains why a database URL was rejected. Hint, when set, shows
// the accepted form.
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint == "" {
		return "invalid database URL: " + e.Reason
	}
	return fmt.Sprintf("invalid database URL: %s (%s)", e.Reason, e.Hint)
}

// NewParseError builds a ParseError.
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{DSN: dsn, Reason: reason, Hint: hint}
}
