// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"fmt"
	"net/http"

	"gridwatch/internal/collector"
	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/nflverse"
)

func (s *Server) handleAPITest(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "api_test", "nflverse Search", map[string]any{
		"Players": players,
		"Season":  s.nfl.Season(),
	})
}

func (s *Server) handleSearchPlayer(w http.ResponseWriter, r *http.Request) {
	name := formString(r, "player_name")
	if name == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Player name required"})
		return
	}
	matches, err := s.nfl.SearchPlayer(r.Context(), name)
	if err != nil {
		s.log.Warn("search player", "query", name, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": apperrors.MessageOf(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]nflverse.PlayerMatch{"players": matches})
}

func (s *Server) handleFetchStats(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	back := playerURL(p.ID)
	nflID := formString(r, "nfl_player_id")
	if nflID == "" {
		s.flash(r, "danger", "NFL player ID required.")
		s.redirect(w, r, back)
		return
	}
	season := formInt(r, "season", s.nfl.Season())
	ctx := r.Context()

	lines, err := s.nfl.GameLog(ctx, nflID, season)
	if err != nil {
		s.log.Warn("fetch game log", "player", p.ID, "nfl_id", nflID, "season", season, "error", err)
		s.flash(r, "danger", fmt.Sprintf("Error fetching stats: %s", apperrors.MessageOf(err)))
		s.redirect(w, r, back)
		return
	}
	if len(lines) == 0 {
		s.flash(r, "warning", fmt.Sprintf("No game data found for season %d. The API may not have current season data yet, or the player ID might be incorrect.", season))
		s.redirect(w, r, back)
		return
	}

	if p.NFLID != nflID {
		if err := s.store.SetPlayerNFLID(ctx, p.ID, nflID); err != nil {
			s.fail(w, r, err)
			return
		}
		p.NFLID = nflID
	}
	games, _, err := collector.ImportPlayer(ctx, s.store, s.nfl, *p, season)
	if err != nil {
		s.log.Warn("import game log", "player", p.ID, "season", season, "error", err)
		s.flash(r, "danger", fmt.Sprintf("Error fetching stats: %s", apperrors.MessageOf(err)))
		s.redirect(w, r, back)
		return
	}
	if games > 0 {
		s.audit(r, "stats_imported", fmt.Sprintf("Imported %d games for %s", games, p.Name))
		s.flash(r, "success", fmt.Sprintf("Successfully imported %d games from NFL Data API!", games))
	} else {
		s.flash(r, "info", "All games from this season were already imported.")
	}
	s.redirect(w, r, back)
}
