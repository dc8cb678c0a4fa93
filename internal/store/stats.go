// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"fmt"
	"time"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

// Order selects ascending or descending date order.
type Order bool

const (
	Asc  Order = false
	Desc Order = true
)

func (o Order) sql() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

const statsColumns = `id, player_id, game_date, passing_yards, passing_tds, interceptions,
completions, pass_attempts, rushing_yards, rushing_tds, carries, receptions,
receiving_yards, receiving_tds, targets, fumbles, fantasy_points`

func scanStats(row interface{ Scan(...any) error }) (*model.GameStats, error) {
	var g model.GameStats
	err := row.Scan(&g.ID, &g.PlayerID, timeCol{&g.GameDate},
		&g.PassingYards, &g.PassingTDs, &g.Interceptions,
		&g.Completions, &g.PassAttempts, &g.RushingYards, &g.RushingTDs, &g.Carries,
		&g.Receptions, &g.ReceivingYards, &g.ReceivingTDs, &g.Targets, &g.Fumbles, &g.FantasyPoints)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) statsArgs(g *model.GameStats) []any {
	return []any{s.date(g.GameDate), g.PassingYards, g.PassingTDs, g.Interceptions,
		g.Completions, g.PassAttempts, g.RushingYards, g.RushingTDs, g.Carries,
		g.Receptions, g.ReceivingYards, g.ReceivingTDs, g.Targets, g.Fumbles, g.FantasyPoints}
}

// CreateStats inserts a game line and sets its ID. A second line for the same
// player and date is a Conflict.
func (s *Store) CreateStats(ctx context.Context, g *model.GameStats) error {
	args := append([]any{g.PlayerID}, s.statsArgs(g)...)
	id, err := s.insert(ctx, `INSERT INTO player_stats (player_id, game_date, passing_yards, passing_tds,
interceptions, completions, pass_attempts, rushing_yards, rushing_tds, carries, receptions,
receiving_yards, receiving_tds, targets, fumbles, fantasy_points)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateStats(g, err)
		}
		return fmt.Errorf("create stats: %w", err)
	}
	g.ID = id
	return nil
}

// StatsByID loads a game line.
func (s *Store) StatsByID(ctx context.Context, id int64) (*model.GameStats, error) {
	g, err := scanStats(s.queryRow(ctx, "SELECT "+statsColumns+" FROM player_stats WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "stats")
	}
	return g, nil
}

// UpdateStats saves every stat column of g.
func (s *Store) UpdateStats(ctx context.Context, g *model.GameStats) error {
	args := append(s.statsArgs(g), g.ID)
	res, err := s.exec(ctx, `UPDATE player_stats SET game_date = ?, passing_yards = ?, passing_tds = ?,
interceptions = ?, completions = ?, pass_attempts = ?, rushing_yards = ?, rushing_tds = ?,
carries = ?, receptions = ?, receiving_yards = ?, receiving_tds = ?, targets = ?, fumbles = ?,
fantasy_points = ? WHERE id = ?`, args...)
	if err != nil && isUniqueViolation(err) {
		return duplicateStats(g, err)
	}
	return affected(res, err, "stats")
}

func duplicateStats(g *model.GameStats, err error) error {
	return apperrors.Wrap(apperrors.Conflict,
		fmt.Sprintf("Stats for %s already exist.", g.GameDate.Format(model.DateLayout)), err)
}

// DeleteStats removes a game line.
func (s *Store) DeleteStats(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM player_stats WHERE id = ?", id)
	return affected(res, err, "stats")
}

func (s *Store) listStats(ctx context.Context, query string, args ...any) ([]model.GameStats, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var out []model.GameStats
	for rows.Next() {
		g, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// StatsForPlayer returns a player's game lines by date.
func (s *Store) StatsForPlayer(ctx context.Context, playerID int64, order Order) ([]model.GameStats, error) {
	return s.listStats(ctx,
		"SELECT "+statsColumns+" FROM player_stats WHERE player_id = ? ORDER BY game_date "+order.sql()+", id "+order.sql(),
		playerID)
}

// StatsExists reports whether a line exists for the player on date.
func (s *Store) StatsExists(ctx context.Context, playerID int64, date time.Time) (bool, error) {
	var n int
	err := s.queryRow(ctx, "SELECT COUNT(*) FROM player_stats WHERE player_id = ? AND game_date = ?",
		playerID, s.date(date)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("stats exists: %w", err)
	}
	return n > 0, nil
}

// CountStats returns the number of game lines.
func (s *Store) CountStats(ctx context.Context) (int, error) {
	return s.count(ctx, "player_stats")
}

// StatsInRange returns a player's lines between from and to, ascending. The
// inclusive flags choose >= / <= over > / <.
func (s *Store) StatsInRange(ctx context.Context, playerID int64, from, to time.Time, fromInclusive, toInclusive bool) ([]model.GameStats, error) {
	lo, hi := ">", "<"
	if fromInclusive {
		lo = ">="
	}
	if toInclusive {
		hi = "<="
	}
	return s.listStats(ctx,
		"SELECT "+statsColumns+" FROM player_stats WHERE player_id = ? AND game_date "+lo+" ? AND game_date "+hi+" ? ORDER BY game_date, id",
		playerID, s.date(from), s.date(to))
}
