// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nflverse

import (
	"context"
	"math"
	"sort"
	"time"

	"gridwatch/internal/model"
)

// GameLine is a player's weekly row mapped onto model.GameStats.
type GameLine struct {
	model.GameStats
	Season   int
	Week     int
	Opponent string
}

var (
	colPlayerID      = []string{"player_id", "gsis_id"}
	colInterceptions = []string{"interceptions", "passing_interceptions"}
	colAttempts      = []string{"attempts", "pass_attempts"}
	colOpponent      = []string{"opponent_team", "opponent"}
)

// GameLog returns the weekly rows for playerID in season, ordered by week.
func (c *Client) GameLog(ctx context.Context, playerID string, season int) ([]GameLine, error) {
	weekly, err := c.Weekly(ctx, season)
	if err != nil {
		return nil, err
	}

	hasPPR := weekly.Has("fantasy_points_ppr")
	var lines []GameLine
	for _, row := range weekly.Rows() {
		if row.Str(colPlayerID...) != playerID {
			continue
		}
		week := row.Int("week")
		if week == 0 {
			week = 1
		}
		g := model.GameStats{
			GameDate:       EstimateGameDate(season, week),
			Targets:        row.Int("targets"),
			Receptions:     row.Int("receptions"),
			ReceivingYards: row.Int("receiving_yards"),
			ReceivingTDs:   row.Int("receiving_tds"),
			Carries:        row.Int("carries"),
			RushingYards:   row.Int("rushing_yards"),
			RushingTDs:     row.Int("rushing_tds"),
			Completions:    row.Int("completions"),
			PassAttempts:   row.Int(colAttempts...),
			PassingYards:   row.Int("passing_yards"),
			PassingTDs:     row.Int("passing_tds"),
			Interceptions:  row.Int(colInterceptions...),
			Fumbles:        row.Int("sack_fumbles_lost"),
		}
		if hasPPR {
			g.FantasyPoints = row.Float("fantasy_points_ppr")
		} else {
			g.FantasyPoints = FantasyPoints(g)
		}
		lines = append(lines, GameLine{
			GameStats: g,
			Season:    season,
			Week:      week,
			Opponent:  row.Str(colOpponent...),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Week < lines[j].Week })
	return lines, nil
}

// latestWeek is the highest week in a weekly stats table, or 1 when empty.
func latestWeek(t *Table) int {
	latest := 0
	for _, row := range t.Rows() {
		if w := row.Int("week"); w > latest {
			latest = w
		}
	}
	if latest == 0 {
		return 1
	}
	return latest
}

// EstimateGameDate approximates a week's game date from the season opener.
func EstimateGameDate(season, week int) time.Time {
	start := time.Date(season, time.September, 5, 0, 0, 0, 0, time.UTC)
	if season == 2025 {
		start = time.Date(2025, time.September, 4, 0, 0, 0, 0, time.UTC)
	}
	return start.AddDate(0, 0, (week-1)*7)
}

// FantasyPoints scores a line with PPR rules, rounded to two decimals.
func FantasyPoints(g model.GameStats) float64 {
	points := float64(g.Receptions)*1.0 +
		float64(g.ReceivingYards)*0.1 +
		float64(g.ReceivingTDs)*6.0 +
		float64(g.RushingYards)*0.1 +
		float64(g.RushingTDs)*6.0 +
		float64(g.PassingYards)*0.04 +
		float64(g.PassingTDs)*4.0 +
		float64(g.Interceptions)*-2.0 +
		float64(g.Fumbles)*-2.0
	return math.Round(points*100) / 100
}
