// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nflverse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const utf8BOM = "\uFEFF"

// Table is a parsed CSV release asset addressed by header name.
type Table struct {
	index map[string]int
	rows  [][]string
}

// Row is one record of a Table.
type Row struct {
	t      *Table
	fields []string
}

// parseTable reads a headed CSV. Header names are trimmed and lower-cased.
// Short rows are tolerated; missing cells read as empty.
func parseTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := &Table{index: make(map[string]int, len(header))}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(t.rows)+2, err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether any of the columns exist.
func (t *Table) Has(cols ...string) bool {
	for _, c := range cols {
		if _, ok := t.index[c]; ok {
			return true
		}
	}
	return false
}

// Rows returns every row in file order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, rec := range t.rows {
		out[i] = Row{t: t, fields: rec}
	}
	return out
}

// Str returns the first non-empty value among the alias columns. The CSV
// literal NA counts as empty.
func (r Row) Str(cols ...string) string {
	for _, c := range cols {
		i, ok := r.t.index[c]
		if !ok || i >= len(r.fields) {
			continue
		}
		v := strings.TrimSpace(r.fields[i])
		if v != "" && v != "NA" {
			return v
		}
	}
	return ""
}

// Float parses the first non-empty alias column, or 0.
func (r Row) Float(cols ...string) float64 {
	v := r.Str(cols...)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Int truncates Float toward zero.
func (r Row) Int(cols ...string) int {
	return int(r.Float(cols...))
}
