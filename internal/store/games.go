// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

const gameColumns = `id, player_id, game_date, opponent, home_away, week, season,
prop_receiving_yards, prop_receptions, prop_rush_yards, created_at`

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func scanGame(row interface{ Scan(...any) error }) (*model.UpcomingGame, error) {
	var g model.UpcomingGame
	var recYds, rec, rushYds sql.NullFloat64
	if err := row.Scan(&g.ID, &g.PlayerID, timeCol{&g.GameDate}, &g.Opponent, &g.HomeAway, &g.Week, &g.Season,
		&recYds, &rec, &rushYds, timeCol{&g.CreatedAt}); err != nil {
		return nil, err
	}
	g.PropReceivingYards = floatPtr(recYds)
	g.PropReceptions = floatPtr(rec)
	g.PropRushYards = floatPtr(rushYds)
	return &g, nil
}

// CreateUpcomingGame inserts a scheduled game and sets its ID.
func (s *Store) CreateUpcomingGame(ctx context.Context, g *model.UpcomingGame) error {
	if g.HomeAway == "" {
		g.HomeAway = "HOME"
	}
	id, err := s.insert(ctx, `INSERT INTO upcoming_game (player_id, game_date, opponent, home_away, week, season,
prop_receiving_yards, prop_receptions, prop_rush_yards, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.PlayerID, s.date(g.GameDate), g.Opponent, g.HomeAway, g.Week, g.Season,
		nullFloat(g.PropReceivingYards), nullFloat(g.PropReceptions), nullFloat(g.PropRushYards), s.now())
	if err != nil {
		return fmt.Errorf("create upcoming game: %w", err)
	}
	g.ID = id
	return nil
}

// UpcomingGameByID loads a scheduled game.
func (s *Store) UpcomingGameByID(ctx context.Context, id int64) (*model.UpcomingGame, error) {
	g, err := scanGame(s.queryRow(ctx, "SELECT "+gameColumns+" FROM upcoming_game WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "upcoming game")
	}
	return g, nil
}

// UpcomingGamesForPlayer returns a player's scheduled games, soonest first.
func (s *Store) UpcomingGamesForPlayer(ctx context.Context, playerID int64) ([]model.UpcomingGame, error) {
	rows, err := s.query(ctx,
		"SELECT "+gameColumns+" FROM upcoming_game WHERE player_id = ? ORDER BY game_date, id", playerID)
	if err != nil {
		return nil, fmt.Errorf("list upcoming games: %w", err)
	}
	defer rows.Close()

	var out []model.UpcomingGame
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

const historyColumns = `id, player_id, opponent_team, game_date, receiving_yards, receptions,
receiving_tds, rushing_yards, rushing_tds, fantasy_points`

// CreateHistory records a game against an opponent and sets its ID.
func (s *Store) CreateHistory(ctx context.Context, h *model.VsTeamGame) error {
	id, err := s.insert(ctx, `INSERT INTO player_vs_team_history (player_id, opponent_team, game_date,
receiving_yards, receptions, receiving_tds, rushing_yards, rushing_tds, fantasy_points, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.PlayerID, h.OpponentTeam, s.date(h.GameDate), h.ReceivingYards, h.Receptions, h.ReceivingTDs,
		h.RushingYards, h.RushingTDs, h.FantasyPoints, s.now())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.Conflict, "history row already recorded", err)
		}
		return fmt.Errorf("create history: %w", err)
	}
	h.ID = id
	return nil
}

// HistoryExists reports whether the game against team on date is recorded.
func (s *Store) HistoryExists(ctx context.Context, playerID int64, team string, date time.Time) (bool, error) {
	var n int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM player_vs_team_history WHERE player_id = ? AND opponent_team = ? AND game_date = ?",
		playerID, team, s.date(date)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("history exists: %w", err)
	}
	return n > 0, nil
}

// HistoryVsTeam returns a player's games against team, newest first.
func (s *Store) HistoryVsTeam(ctx context.Context, playerID int64, team string) ([]model.VsTeamGame, error) {
	rows, err := s.query(ctx,
		"SELECT "+historyColumns+" FROM player_vs_team_history WHERE player_id = ? AND opponent_team = ? ORDER BY game_date DESC, id DESC",
		playerID, team)
	if err != nil {
		return nil, fmt.Errorf("history vs team: %w", err)
	}
	defer rows.Close()

	var out []model.VsTeamGame
	for rows.Next() {
		var h model.VsTeamGame
		if err := rows.Scan(&h.ID, &h.PlayerID, &h.OpponentTeam, timeCol{&h.GameDate}, &h.ReceivingYards,
			&h.Receptions, &h.ReceivingTDs, &h.RushingYards, &h.RushingTDs, &h.FantasyPoints); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
