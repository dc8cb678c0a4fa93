// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package store persists gridwatch records in PostgreSQL or SQLite.
//
// Both backends are reached through database/sql. PostgreSQL connections come
// from a pgx pool wrapped with pgx's stdlib adapter, SQLite connections from the
// pure-Go modernc driver. Queries are written once with ? placeholders and
// rebound to $n for PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gridwatch/internal/dsn"
	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the gridwatch database handle. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect dsn.DBType
}

// Open connects to the database named by rawDSN without running migrations.
func Open(ctx context.Context, rawDSN string) (*Store, error) {
	info, err := dsn.ParseInfo(rawDSN)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Invalid, "invalid DATABASE_URL", err)
	}

	switch info.Type {
	case dsn.DBTypePostgreSQL:
		normalized, err := dsn.NewPostgreSQLResolver().Normalize(info)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Invalid, "invalid DATABASE_URL", err)
		}
		pool, err := pgxpool.New(ctx, normalized)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Unavailable, "open postgres pool", err)
		}
		return &Store{db: stdlib.OpenDBFromPool(pool), pool: pool, dialect: dsn.DBTypePostgreSQL}, nil

	case dsn.DBTypeSQLite:
		db, err := sql.Open("sqlite", sqliteDSN(info))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Unavailable, "open sqlite database", err)
		}
		// One writer keeps SQLite free of SQLITE_BUSY under the web server and workers.
		db.SetMaxOpenConns(1)
		return &Store{db: db, dialect: dsn.DBTypeSQLite}, nil
	}
	return nil, apperrors.New(apperrors.Invalid, "unsupported database type")
}

func sqliteDSN(info *dsn.DSNInfo) string {
	params := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	for k, v := range info.Params {
		params = append(params, k+"="+v)
	}
	return "file:" + info.Database + "?" + strings.Join(params, "&")
}

// Dialect reports which backend the store talks to.
func (s *Store) Dialect() dsn.DBType { return s.dialect }

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// Ping verifies the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.Unavailable, "database unreachable", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dsn.DBTypePostgreSQL {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// affected maps a zero-row update or delete to NotFound.
func affected(res sql.Result, err error, what string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.New(apperrors.NotFound, what+" not found")
	}
	return nil
}

// date converts a calendar date into the driver value for the dialect.
func (s *Store) date(t time.Time) any {
	if s.dialect == dsn.DBTypePostgreSQL {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.Format(model.DateLayout)
}

func (s *Store) now() any { return s.timestamp(time.Now()) }

func (s *Store) timestamp(t time.Time) any {
	t = t.UTC()
	if s.dialect == dsn.DBTypePostgreSQL {
		return t
	}
	return t.Format(timestampLayout)
}

const timestampLayout = "2006-01-02 15:04:05"

// timeCol scans DATE, TIMESTAMP and their SQLite TEXT forms.
type timeCol struct{ t *time.Time }

var timeLayouts = []string{
	time.RFC3339Nano,
	timestampLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05",
	model.DateLayout,
}

func (c timeCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c.t = time.Time{}
		return nil
	case time.Time:
		*c.t = v
		return nil
	case []byte:
		return c.parse(string(v))
	case string:
		return c.parse(v)
	}
	return fmt.Errorf("cannot scan %T into time", src)
}

func (c timeCol) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*c.t = t
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", v)
}

// isUniqueViolation recognises unique-constraint errors from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}

// notFound maps sql.ErrNoRows to a typed NotFound error.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.New(apperrors.NotFound, what+" not found")
	}
	return err
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// count returns the row count of a table known to the store.
func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
