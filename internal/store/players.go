// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"gridwatch/internal/model"
)

const playerColumns = "id, name, team, position, nfl_id, created_at"

func scanPlayer(row interface{ Scan(...any) error }, extra ...any) (*model.Player, error) {
	var p model.Player
	var nflID sql.NullString
	dest := append([]any{&p.ID, &p.Name, &p.Team, &p.Position, &nflID, timeCol{&p.CreatedAt}}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.NFLID = nflID.String
	return &p, nil
}

func (s *Store) listPlayers(ctx context.Context, query string, args ...any) ([]model.Player, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// CreatePlayer inserts p and sets its ID.
func (s *Store) CreatePlayer(ctx context.Context, p *model.Player) error {
	id, err := s.insert(ctx,
		"INSERT INTO player (name, team, position, nfl_id, created_at) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Team, p.Position, nullString(p.NFLID), s.now())
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	p.ID = id
	return nil
}

// PlayerByID loads a player.
func (s *Store) PlayerByID(ctx context.Context, id int64) (*model.Player, error) {
	p, err := scanPlayer(s.queryRow(ctx, "SELECT "+playerColumns+" FROM player WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "player")
	}
	return p, nil
}

// ListPlayers returns all players ordered by name.
func (s *Store) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return s.listPlayers(ctx, "SELECT "+playerColumns+" FROM player ORDER BY name, id")
}

// UpdatePlayer saves name, team and position.
func (s *Store) UpdatePlayer(ctx context.Context, p *model.Player) error {
	res, err := s.exec(ctx, "UPDATE player SET name = ?, team = ?, position = ? WHERE id = ?",
		p.Name, p.Team, p.Position, p.ID)
	return affected(res, err, "player")
}

// DeletePlayer removes a player and, through cascades, everything recorded for it.
func (s *Store) DeletePlayer(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM player WHERE id = ?", id)
	return affected(res, err, "player")
}

// SetPlayerNFLID links a player to an nflverse gsis id. An empty id unlinks.
func (s *Store) SetPlayerNFLID(ctx context.Context, id int64, nflID string) error {
	res, err := s.exec(ctx, "UPDATE player SET nfl_id = ? WHERE id = ?", nullString(nflID), id)
	return affected(res, err, "player")
}

// PlayersWithNFLID returns the players the collector can import for.
func (s *Store) PlayersWithNFLID(ctx context.Context) ([]model.Player, error) {
	return s.listPlayers(ctx,
		"SELECT "+playerColumns+" FROM player WHERE nfl_id IS NOT NULL AND nfl_id <> '' ORDER BY id")
}

// CountPlayers returns the number of players.
func (s *Store) CountPlayers(ctx context.Context) (int, error) {
	return s.count(ctx, "player")
}

// PlayersWithStatsAndEvents returns players having at least one stat line and
// one life event, with both counts.
func (s *Store) PlayersWithStatsAndEvents(ctx context.Context) ([]model.PlayerActivity, error) {
	rows, err := s.query(ctx, `
SELECT p.id, p.name, p.team, p.position, p.nfl_id, p.created_at,
       (SELECT COUNT(*) FROM player_stats ps WHERE ps.player_id = p.id),
       (SELECT COUNT(*) FROM life_event le WHERE le.player_id = p.id)
FROM player p
WHERE EXISTS (SELECT 1 FROM player_stats ps WHERE ps.player_id = p.id)
  AND EXISTS (SELECT 1 FROM life_event le WHERE le.player_id = p.id)
ORDER BY p.name, p.id`)
	if err != nil {
		return nil, fmt.Errorf("players with stats and events: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerActivity
	for rows.Next() {
		var a model.PlayerActivity
		p, err := scanPlayer(rows, &a.StatsCount, &a.EventsCount)
		if err != nil {
			return nil, err
		}
		a.Player = *p
		out = append(out, a)
	}
	return out, rows.Err()
}
