// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"fmt"
	"net/http"
	"strings"

	"gridwatch/internal/analytics"
	"gridwatch/internal/collector"
	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
	"gridwatch/internal/store"
)

func (s *Server) handleAddGameForm(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "add_upcoming_game", "Add Upcoming Game", map[string]any{
		"Player": p,
		"Season": s.nfl.Season(),
	})
}

func (s *Server) handleAddGame(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	date, err := formDate(r, "game_date")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	g := &model.UpcomingGame{
		PlayerID:           p.ID,
		GameDate:           date,
		Opponent:           strings.ToUpper(formString(r, "opponent")),
		HomeAway:           formString(r, "home_away"),
		Week:               formInt(r, "week", 0),
		Season:             formInt(r, "season", s.nfl.Season()),
		PropReceivingYards: formOptFloat(r, "prop_receiving_yards"),
		PropReceptions:     formOptFloat(r, "prop_receptions"),
		PropRushYards:      formOptFloat(r, "prop_rush_yards"),
	}
	if g.Opponent == "" {
		s.fail(w, r, apperrors.New(apperrors.Invalid, "Opponent is required."))
		return
	}
	if err := s.store.CreateUpcomingGame(r.Context(), g); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "upcoming_game_added", fmt.Sprintf("Added upcoming game for %s vs %s", p.Name, g.Opponent))
	s.flash(r, "success", "Upcoming game added successfully!")
	s.redirect(w, r, playerURL(p.ID))
}

func (s *Server) handleMatchup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	game, err := s.store.UpcomingGameByID(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.PlayerByID(ctx, game.PlayerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, err := s.store.StatsForPlayer(ctx, p.ID, store.Asc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, err := s.store.EventsForPlayer(ctx, p.ID, store.Asc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defense, err := s.store.DefenseFor(ctx, game.Opponent, game.Season, game.Week)
	if err != nil && !apperrors.Is(err, apperrors.NotFound) {
		s.fail(w, r, err)
		return
	}
	history, err := s.store.HistoryVsTeam(ctx, p.ID, game.Opponent)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	prediction := analytics.Predict(*p, *game, events, stats, defense, history)
	s.render(w, r, http.StatusOK, "matchup", fmt.Sprintf("%s vs %s", p.Name, game.Opponent), map[string]any{
		"Player":     p,
		"Game":       game,
		"Defense":    defense,
		"History":    history,
		"Prediction": prediction,
		"Games":      len(stats),
	})
}

func (s *Server) handleAddDefenseForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "add_team_defense", "Add Team Defense", map[string]any{
		"Season": s.nfl.Season(),
	})
}

func (s *Server) handleAddDefense(w http.ResponseWriter, r *http.Request) {
	d := &model.TeamDefense{
		TeamAbbr:                strings.ToUpper(formString(r, "team_abbr")),
		Season:                  formInt(r, "season", s.nfl.Season()),
		Week:                    formInt(r, "week", 1),
		PassYardsAllowedPerGame: formFloat(r, "pass_yards_allowed"),
		RushYardsAllowedPerGame: formFloat(r, "rush_yards_allowed"),
		PassingTDsAllowed:       formInt(r, "passing_tds_allowed", 0),
		RushingTDsAllowed:       formInt(r, "rushing_tds_allowed", 0),
		Sacks:                   formInt(r, "sacks", 0),
		RecYardsAllowedToRBs:    formFloat(r, "rec_yards_to_rbs"),
		RecYardsAllowedToWRs:    formFloat(r, "rec_yards_to_wrs"),
		RecYardsAllowedToTEs:    formFloat(r, "rec_yards_to_tes"),
		PassDefenseRank:         formInt(r, "pass_defense_rank", 16),
		RushDefenseRank:         formInt(r, "rush_defense_rank", 16),
	}
	if d.TeamAbbr == "" {
		s.fail(w, r, apperrors.New(apperrors.Invalid, "Team abbreviation is required."))
		return
	}
	if err := s.store.InsertDefense(r.Context(), d); err != nil {
		if apperrors.Is(err, apperrors.Conflict) {
			s.flash(r, "warning", fmt.Sprintf("Defense stats for %s week %d of %d already exist.", d.TeamAbbr, d.Week, d.Season))
			s.redirect(w, r, "/add_team_defense")
			return
		}
		s.fail(w, r, err)
		return
	}
	s.audit(r, "defense_stats_added", fmt.Sprintf("Added defense stats for %s week %d", d.TeamAbbr, d.Week))
	s.flash(r, "success", fmt.Sprintf("Defense stats added for %s!", d.TeamAbbr))
	s.redirect(w, r, "/view_team_defense")
}

func (s *Server) handleImportDefenseForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "import_team_defense", "Import Team Defense", map[string]any{
		"Season": defaultImportSeason,
	})
}

// defaultImportSeason is the last completed season nflverse always carries.
const defaultImportSeason = 2024

func (s *Server) handleImportDefense(w http.ResponseWriter, r *http.Request) {
	season := formInt(r, "season", defaultImportSeason)
	week := formInt(r, "week", 1)

	report, err := s.nfl.DefenseStats(r.Context(), season)
	if err != nil && !apperrors.Is(err, apperrors.NotFound) {
		s.log.Warn("import defense stats", "season", season, "error", err)
		s.flash(r, "danger", fmt.Sprintf("Error importing defense stats: %s", apperrors.MessageOf(err)))
		s.redirect(w, r, "/import_team_defense")
		return
	}
	if report == nil || len(report.Teams) == 0 {
		s.flash(r, "warning", "No defense stats found for this season. Try a different season.")
		s.redirect(w, r, "/import_team_defense")
		return
	}
	report.Week = week

	created, updated, err := collector.UpsertDefense(r.Context(), s.store, report)
	if err != nil {
		s.log.Warn("store defense stats", "season", season, "error", err)
		s.flash(r, "danger", fmt.Sprintf("Error importing defense stats: %v", err))
		s.redirect(w, r, "/import_team_defense")
		return
	}
	s.audit(r, "defense_stats_imported", fmt.Sprintf("Imported/updated defense stats for %d teams", created+updated))
	if report.Estimated {
		s.flash(r, "info", fmt.Sprintf("nflverse has no %d data yet; league-average estimates were stored.", season))
	}
	s.flash(r, "success", fmt.Sprintf("Successfully imported %d new and updated %d existing team defense stats!", created, updated))
	s.redirect(w, r, "/view_team_defense")
}

func (s *Server) handleViewDefense(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListDefense(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "view_team_defense", "Viewed team defense stats")
	s.render(w, r, http.StatusOK, "view_team_defense", "Team Defense", map[string]any{
		"Groups": analytics.DefenseTable(rows),
	})
}
