// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"gridwatch/internal/model"
)

// InsertAudit records an action. A nil UserID is stored as NULL.
func (s *Store) InsertAudit(ctx context.Context, e *model.AuditEntry) error {
	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	id, err := s.insert(ctx,
		"INSERT INTO audit_log (user_id, action, details, ip_address, timestamp) VALUES (?, ?, ?, ?, ?)",
		userID, e.Action, e.Details, e.IPAddress, s.now())
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	e.ID = id
	return nil
}

// RecentAudit returns the newest entries first, joined with usernames.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.query(ctx, `
SELECT a.id, a.user_id, COALESCE(u.username, ''), a.action, a.details, a.ip_address, a.timestamp
FROM audit_log a
LEFT JOIN users u ON u.id = a.user_id
ORDER BY a.timestamp DESC, a.id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent audit: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var userID sql.NullInt64
		if err := rows.Scan(&e.ID, &userID, &e.Username, &e.Action, &e.Details, &e.IPAddress, timeCol{&e.Timestamp}); err != nil {
			return nil, err
		}
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
