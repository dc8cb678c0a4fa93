// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nflverse

import (
	"context"
	"math"
	"sort"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

// Teams are the 32 franchise abbreviations used by nflverse.
var Teams = []string{
	"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE",
	"DAL", "DEN", "DET", "GB", "HOU", "IND", "JAX", "KC",
	"LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
	"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WAS",
}

// DefenseReport is one line per team for a season.
type DefenseReport struct {
	Season int
	Week   int
	// Estimated is set when the lines are synthetic rather than aggregated.
	Estimated bool
	Teams     []model.TeamDefense
}

// DefenseStats aggregates yards and touchdowns allowed per team from the
// weekly file, grouping offensive rows by opponent. Without opponent data,
// or without a weekly file for the season, it returns EstimatedDefense.
func (c *Client) DefenseStats(ctx context.Context, season int) (*DefenseReport, error) {
	weekly, err := c.Weekly(ctx, season)
	if apperrors.Is(err, apperrors.NotFound) {
		return EstimatedDefense(season, 1), nil
	}
	if err != nil {
		return nil, err
	}
	if !weekly.Has(colOpponent...) {
		return EstimatedDefense(season, latestWeek(weekly)), nil
	}
	teams := aggregateDefense(weekly, season)
	if len(teams) == 0 {
		return EstimatedDefense(season, latestWeek(weekly)), nil
	}
	return &DefenseReport{Season: season, Week: latestWeek(weekly), Teams: teams}, nil
}

type defenseTotals struct {
	weeks               map[int]bool
	passYds, rushYds    float64
	passTDs, rushTDs    int
	sacks               int
	recRB, recWR, recTE float64
}

func aggregateDefense(weekly *Table, season int) []model.TeamDefense {
	byTeam := map[string]*defenseTotals{}
	latest := latestWeek(weekly)
	for _, row := range weekly.Rows() {
		opp := row.Str(colOpponent...)
		if opp == "" {
			continue
		}
		tot, ok := byTeam[opp]
		if !ok {
			tot = &defenseTotals{weeks: map[int]bool{}}
			byTeam[opp] = tot
		}
		tot.weeks[row.Int("week")] = true
		tot.passYds += row.Float("passing_yards")
		tot.rushYds += row.Float("rushing_yards")
		tot.passTDs += row.Int("passing_tds")
		tot.rushTDs += row.Int("rushing_tds")
		tot.sacks += row.Int("sacks", "sacks_suffered")
		rec := row.Float("receiving_yards")
		switch row.Str("position") {
		case "RB", "FB":
			tot.recRB += rec
		case "WR":
			tot.recWR += rec
		case "TE":
			tot.recTE += rec
		}
	}

	teams := make([]model.TeamDefense, 0, len(byTeam))
	for abbr, tot := range byTeam {
		games := float64(len(tot.weeks))
		teams = append(teams, model.TeamDefense{
			TeamAbbr:                abbr,
			Season:                  season,
			Week:                    latest,
			PassYardsAllowedPerGame: round1(tot.passYds / games),
			RushYardsAllowedPerGame: round1(tot.rushYds / games),
			PassingTDsAllowed:       tot.passTDs,
			RushingTDsAllowed:       tot.rushTDs,
			Sacks:                   tot.sacks,
			RecYardsAllowedToRBs:    round1(tot.recRB / games),
			RecYardsAllowedToWRs:    round1(tot.recWR / games),
			RecYardsAllowedToTEs:    round1(tot.recTE / games),
		})
	}
	rankDefense(teams)
	return teams
}

// EstimatedDefense gives every team synthetic but distinct lines, better
// defenses first in Teams order.
func EstimatedDefense(season, week int) *DefenseReport {
	teams := make([]model.TeamDefense, len(Teams))
	for i, abbr := range Teams {
		rf := float64(i+1) / 32.0
		teams[i] = model.TeamDefense{
			TeamAbbr:                abbr,
			Season:                  season,
			Week:                    week,
			PassYardsAllowedPerGame: round1(200 + rf*80),
			RushYardsAllowedPerGame: round1(90 + rf*50),
			PassingTDsAllowed:       int(12 + rf*10),
			RushingTDsAllowed:       int(6 + rf*8),
			Sacks:                   int(35 - rf*15),
		}
	}
	rankDefense(teams)
	return &DefenseReport{Season: season, Week: week, Estimated: true, Teams: teams}
}

// rankDefense assigns 1-based ranks by yards allowed ascending. The slice is
// left sorted by team abbreviation.
func rankDefense(teams []model.TeamDefense) {
	sort.SliceStable(teams, func(i, j int) bool { return teams[i].TeamAbbr < teams[j].TeamAbbr })

	idx := make([]int, len(teams))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return teams[idx[a]].PassYardsAllowedPerGame < teams[idx[b]].PassYardsAllowedPerGame
	})
	for rank, i := range idx {
		teams[i].PassDefenseRank = rank + 1
	}
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return teams[idx[a]].RushYardsAllowedPerGame < teams[idx[b]].RushYardsAllowedPerGame
	})
	for rank, i := range idx {
		teams[i].RushDefenseRank = rank + 1
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
