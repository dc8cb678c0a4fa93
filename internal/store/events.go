// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"fmt"

	"gridwatch/internal/model"
)

const eventColumns = "id, player_id, event_type, event_category, event_description, event_date, created_at"

func scanEvent(row interface{ Scan(...any) error }) (*model.LifeEvent, error) {
	var e model.LifeEvent
	var typ string
	if err := row.Scan(&e.ID, &e.PlayerID, &typ, &e.Category, &e.Description,
		timeCol{&e.Date}, timeCol{&e.CreatedAt}); err != nil {
		return nil, err
	}
	e.Type = model.EventType(typ)
	return &e, nil
}

// CreateEvent inserts a life event and sets its ID.
func (s *Store) CreateEvent(ctx context.Context, e *model.LifeEvent) error {
	id, err := s.insert(ctx, `INSERT INTO life_event (player_id, event_type, event_category, event_description, event_date, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		e.PlayerID, string(e.Type), e.Category, e.Description, s.date(e.Date), s.now())
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	e.ID = id
	return nil
}

// EventByID loads a life event.
func (s *Store) EventByID(ctx context.Context, id int64) (*model.LifeEvent, error) {
	e, err := scanEvent(s.queryRow(ctx, "SELECT "+eventColumns+" FROM life_event WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "life event")
	}
	return e, nil
}

// UpdateEvent saves type, category, description and date.
func (s *Store) UpdateEvent(ctx context.Context, e *model.LifeEvent) error {
	res, err := s.exec(ctx,
		"UPDATE life_event SET event_type = ?, event_category = ?, event_description = ?, event_date = ? WHERE id = ?",
		string(e.Type), e.Category, e.Description, s.date(e.Date), e.ID)
	return affected(res, err, "life event")
}

// DeleteEvent removes a life event.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM life_event WHERE id = ?", id)
	return affected(res, err, "life event")
}

// EventsForPlayer returns a player's events by date.
func (s *Store) EventsForPlayer(ctx context.Context, playerID int64, order Order) ([]model.LifeEvent, error) {
	rows, err := s.query(ctx,
		"SELECT "+eventColumns+" FROM life_event WHERE player_id = ? ORDER BY event_date "+order.sql()+", id "+order.sql(),
		playerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.LifeEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// CountEvents returns the number of life events.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	return s.count(ctx, "life_event")
}

// PlayerIDsWithEvents returns the distinct players that have life events.
func (s *Store) PlayerIDsWithEvents(ctx context.Context) ([]int64, error) {
	rows, err := s.query(ctx, "SELECT DISTINCT player_id FROM life_event ORDER BY player_id")
	if err != nil {
		return nil, fmt.Errorf("players with events: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
