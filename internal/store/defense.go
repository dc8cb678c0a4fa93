// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"fmt"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

const defenseColumns = `id, team_abbr, season, week, pass_yards_allowed_per_game, rush_yards_allowed_per_game,
passing_tds_allowed, rushing_tds_allowed, sacks, rec_yards_allowed_to_rbs, rec_yards_allowed_to_wrs,
rec_yards_allowed_to_tes, pass_defense_rank, rush_defense_rank, created_at`

func scanDefense(row interface{ Scan(...any) error }) (*model.TeamDefense, error) {
	var d model.TeamDefense
	err := row.Scan(&d.ID, &d.TeamAbbr, &d.Season, &d.Week, &d.PassYardsAllowedPerGame, &d.RushYardsAllowedPerGame,
		&d.PassingTDsAllowed, &d.RushingTDsAllowed, &d.Sacks, &d.RecYardsAllowedToRBs, &d.RecYardsAllowedToWRs,
		&d.RecYardsAllowedToTEs, &d.PassDefenseRank, &d.RushDefenseRank, timeCol{&d.CreatedAt})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func defenseValues(d *model.TeamDefense) []any {
	return []any{d.PassYardsAllowedPerGame, d.RushYardsAllowedPerGame, d.PassingTDsAllowed, d.RushingTDsAllowed,
		d.Sacks, d.RecYardsAllowedToRBs, d.RecYardsAllowedToWRs, d.RecYardsAllowedToTEs,
		d.PassDefenseRank, d.RushDefenseRank}
}

// InsertDefense inserts a defense line. A duplicate (team, season, week) is a Conflict.
func (s *Store) InsertDefense(ctx context.Context, d *model.TeamDefense) error {
	args := append([]any{d.TeamAbbr, d.Season, d.Week}, defenseValues(d)...)
	args = append(args, s.now())
	id, err := s.insert(ctx, `INSERT INTO team_defense_stats (team_abbr, season, week,
pass_yards_allowed_per_game, rush_yards_allowed_per_game, passing_tds_allowed, rushing_tds_allowed,
sacks, rec_yards_allowed_to_rbs, rec_yards_allowed_to_wrs, rec_yards_allowed_to_tes,
pass_defense_rank, rush_defense_rank, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.Conflict,
				fmt.Sprintf("defense stats for %s week %d of %d already exist", d.TeamAbbr, d.Week, d.Season), err)
		}
		return fmt.Errorf("insert defense: %w", err)
	}
	d.ID = id
	return nil
}

// UpsertDefense inserts d or overwrites the existing (team, season, week) row.
// It reports whether a new row was created.
func (s *Store) UpsertDefense(ctx context.Context, d *model.TeamDefense) (created bool, err error) {
	existing, err := s.DefenseFor(ctx, d.TeamAbbr, d.Season, d.Week)
	if err != nil && !apperrors.Is(err, apperrors.NotFound) {
		return false, err
	}
	if existing == nil {
		if err := s.InsertDefense(ctx, d); err != nil {
			return false, err
		}
		return true, nil
	}

	d.ID = existing.ID
	args := append(defenseValues(d), d.ID)
	res, err := s.exec(ctx, `UPDATE team_defense_stats SET pass_yards_allowed_per_game = ?,
rush_yards_allowed_per_game = ?, passing_tds_allowed = ?, rushing_tds_allowed = ?, sacks = ?,
rec_yards_allowed_to_rbs = ?, rec_yards_allowed_to_wrs = ?, rec_yards_allowed_to_tes = ?,
pass_defense_rank = ?, rush_defense_rank = ? WHERE id = ?`, args...)
	if err := affected(res, err, "defense stats"); err != nil {
		return false, err
	}
	return false, nil
}

// DefenseFor loads one team's line for a season week.
func (s *Store) DefenseFor(ctx context.Context, team string, season, week int) (*model.TeamDefense, error) {
	d, err := scanDefense(s.queryRow(ctx,
		"SELECT "+defenseColumns+" FROM team_defense_stats WHERE team_abbr = ? AND season = ? AND week = ?",
		team, season, week))
	if err != nil {
		return nil, notFound(err, "defense stats")
	}
	return d, nil
}

// ListDefense returns every defense line, newest season and week first.
func (s *Store) ListDefense(ctx context.Context) ([]model.TeamDefense, error) {
	rows, err := s.query(ctx,
		"SELECT "+defenseColumns+" FROM team_defense_stats ORDER BY season DESC, week DESC, team_abbr")
	if err != nil {
		return nil, fmt.Errorf("list defense: %w", err)
	}
	defer rows.Close()

	var out []model.TeamDefense
	for rows.Next() {
		d, err := scanDefense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
