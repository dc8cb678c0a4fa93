// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package analytics

import (
	"fmt"
	"sort"

	"gridwatch/internal/model"
)

// DefenseLine is a team's cumulative defense over the weeks stored for a
// season.
type DefenseLine struct {
	TeamAbbr                string
	Season                  int
	GamesPlayed             int
	PassYardsAllowedPerGame float64
	RushYardsAllowedPerGame float64
	Sacks                   int
	PassingTDsAllowed       int
	RushingTDsAllowed       int
	LatestWeek              int
	PassDefenseRank         int
	RushDefenseRank         int
}

// DefenseGroup is one season's ranked table.
type DefenseGroup struct {
	Title  string
	Season int
	Teams  []DefenseLine
}

type defenseKey struct {
	team   string
	season int
}

type defenseSums struct {
	games           int
	pass, rush      float64
	sacks           int
	passTDs, rushTD int
	latest          int
}

// DefenseTable averages weekly defense rows per team and season and ranks
// each season's teams by yards allowed. Groups are newest season first;
// teams within a group are in pass-defense rank order.
func DefenseTable(rows []model.TeamDefense) []DefenseGroup {
	sums := make(map[defenseKey]*defenseSums)
	for _, r := range rows {
		k := defenseKey{r.TeamAbbr, r.Season}
		s, ok := sums[k]
		if !ok {
			s = &defenseSums{}
			sums[k] = s
		}
		s.games++
		s.pass += r.PassYardsAllowedPerGame
		s.rush += r.RushYardsAllowedPerGame
		s.sacks += r.Sacks
		s.passTDs += r.PassingTDsAllowed
		s.rushTD += r.RushingTDsAllowed
		s.latest = max(s.latest, r.Week)
	}

	seasons := make(map[int][]DefenseLine)
	for k, s := range sums {
		seasons[k.season] = append(seasons[k.season], DefenseLine{
			TeamAbbr:                k.team,
			Season:                  k.season,
			GamesPlayed:             s.games,
			PassYardsAllowedPerGame: Round(s.pass/float64(s.games), 1),
			RushYardsAllowedPerGame: Round(s.rush/float64(s.games), 1),
			Sacks:                   s.sacks,
			PassingTDsAllowed:       s.passTDs,
			RushingTDsAllowed:       s.rushTD,
			LatestWeek:              s.latest,
		})
	}

	groups := make([]DefenseGroup, 0, len(seasons))
	for season, teams := range seasons {
		sort.Slice(teams, func(i, j int) bool { return teams[i].TeamAbbr < teams[j].TeamAbbr })

		sort.SliceStable(teams, func(i, j int) bool {
			return teams[i].RushYardsAllowedPerGame < teams[j].RushYardsAllowedPerGame
		})
		latest := 0
		for i := range teams {
			teams[i].RushDefenseRank = i + 1
			latest = max(latest, teams[i].LatestWeek)
		}

		sort.Slice(teams, func(i, j int) bool { return teams[i].TeamAbbr < teams[j].TeamAbbr })
		sort.SliceStable(teams, func(i, j int) bool {
			return teams[i].PassYardsAllowedPerGame < teams[j].PassYardsAllowedPerGame
		})
		for i := range teams {
			teams[i].PassDefenseRank = i + 1
		}

		groups = append(groups, DefenseGroup{
			Title:  fmt.Sprintf("%d Season - Average through Week %d", season, latest),
			Season: season,
			Teams:  teams,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Season > groups[j].Season })
	return groups
}
