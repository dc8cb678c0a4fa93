// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
	"gridwatch/internal/store"
)

func playerURL(id int64) string { return fmt.Sprintf("/player/%d", id) }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index", "Players", map[string]any{"Players": players})
}

// playerPage is everything shown on a player's detail page.
type playerPage struct {
	Player       *model.Player
	Stats        []model.GameStats
	Events       []model.LifeEvent
	Games        []model.UpcomingGame
	Correlations []model.Correlation
	Season       int
}

func (s *Server) handlePlayerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	player, err := s.store.PlayerByID(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page := playerPage{Player: player, Season: s.nfl.Season()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page.Stats, err = s.store.StatsForPlayer(gctx, id, store.Desc)
		return err
	})
	g.Go(func() (err error) {
		page.Events, err = s.store.EventsForPlayer(gctx, id, store.Desc)
		return err
	})
	g.Go(func() (err error) {
		page.Games, err = s.store.UpcomingGamesForPlayer(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		page.Correlations, err = s.store.LatestCorrelations(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "player_detail", player.Name, page)
}

func (s *Server) handleAddPlayerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "player_form", "Add Player", map[string]any{"Player": &model.Player{}})
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	p := &model.Player{}
	if err := playerForm(r, p); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.CreatePlayer(r.Context(), p); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "player_added", fmt.Sprintf("Added player: %s", p.Name))
	s.flash(r, "success", fmt.Sprintf("Player %s added successfully!", p.Name))
	s.redirect(w, r, "/")
}

func (s *Server) handleEditPlayerForm(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "player_form", "Edit Player", map[string]any{"Player": p})
}

func (s *Server) handleEditPlayer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	if err := playerForm(r, p); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.UpdatePlayer(r.Context(), p); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "player_edited", fmt.Sprintf("Edited player: %s", p.Name))
	s.flash(r, "success", fmt.Sprintf("Player %s updated successfully!", p.Name))
	s.redirect(w, r, playerURL(p.ID))
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePlayer(r.Context(), p.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "player_deleted", fmt.Sprintf("Deleted player: %s", p.Name))
	s.flash(r, "success", fmt.Sprintf("Player %s deleted successfully!", p.Name))
	s.redirect(w, r, "/")
}

func (s *Server) handleLinkPlayer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	nflID := formString(r, "nfl_player_id")
	if err := s.store.SetPlayerNFLID(r.Context(), p.ID, nflID); err != nil {
		s.fail(w, r, err)
		return
	}
	if nflID == "" {
		s.audit(r, "player_linked", fmt.Sprintf("Unlinked %s from nflverse", p.Name))
		s.flash(r, "info", fmt.Sprintf("Player %s is no longer linked to nflverse.", p.Name))
	} else {
		s.audit(r, "player_linked", fmt.Sprintf("Linked %s to nflverse id %s", p.Name, nflID))
		s.flash(r, "success", fmt.Sprintf("Player %s linked to nflverse id %s.", p.Name, nflID))
	}
	s.redirect(w, r, playerURL(p.ID))
}

// loadPlayer fetches the player named by the {id} wildcard, writing the
// error page when it cannot.
func (s *Server) loadPlayer(w http.ResponseWriter, r *http.Request) (*model.Player, bool) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	p, err := s.store.PlayerByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return p, true
}

func (s *Server) handleAddStatsForm(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "stats_form", "Add Stats", map[string]any{
		"Player": p,
		"Stats":  &model.GameStats{},
		"Action": fmt.Sprintf("/add_stats/%d", p.ID),
	})
}

func (s *Server) handleAddStats(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	g := &model.GameStats{PlayerID: p.ID}
	if err := statsForm(r, g); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.CreateStats(r.Context(), g); err != nil {
		s.statsConflict(w, r, p, err)
		return
	}
	s.audit(r, "stats_added", fmt.Sprintf("Added stats for %s on %s", p.Name, g.GameDate.Format(model.DateLayout)))
	s.flash(r, "success", "Stats added successfully!")
	s.redirect(w, r, playerURL(p.ID))
}

// statsConflict sends a duplicate game date back to the player page as a
// warning; other errors fail the request.
func (s *Server) statsConflict(w http.ResponseWriter, r *http.Request, p *model.Player, err error) {
	if !apperrors.Is(err, apperrors.Conflict) {
		s.fail(w, r, err)
		return
	}
	s.flash(r, "warning", apperrors.MessageOf(err))
	s.redirect(w, r, playerURL(p.ID))
}

// loadStats fetches the stat line named by {id} and its player.
func (s *Server) loadStats(w http.ResponseWriter, r *http.Request) (*model.GameStats, *model.Player, bool) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	g, err := s.store.StatsByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	p, err := s.store.PlayerByID(r.Context(), g.PlayerID)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return g, p, true
}

func (s *Server) handleEditStatsForm(w http.ResponseWriter, r *http.Request) {
	g, p, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "stats_form", "Edit Stats", map[string]any{
		"Player": p,
		"Stats":  g,
		"Action": fmt.Sprintf("/edit_stats/%d", g.ID),
	})
}

func (s *Server) handleEditStats(w http.ResponseWriter, r *http.Request) {
	g, p, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	if err := statsForm(r, g); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.UpdateStats(r.Context(), g); err != nil {
		s.statsConflict(w, r, p, err)
		return
	}
	s.audit(r, "stats_edited", fmt.Sprintf("Edited stats ID: %d", g.ID))
	s.flash(r, "success", "Stats updated successfully!")
	s.redirect(w, r, playerURL(p.ID))
}

func (s *Server) handleDeleteStats(w http.ResponseWriter, r *http.Request) {
	g, p, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteStats(r.Context(), g.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "stats_deleted", fmt.Sprintf("Deleted stats ID: %d", g.ID))
	s.flash(r, "success", "Stats deleted successfully!")
	s.redirect(w, r, playerURL(p.ID))
}

func (s *Server) handleAddEventForm(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "event_form", "Add Life Event", map[string]any{
		"Player": p,
		"Event":  &model.LifeEvent{Type: model.EventPositive},
		"Action": fmt.Sprintf("/add_life_event/%d", p.ID),
	})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	e := &model.LifeEvent{PlayerID: p.ID}
	if err := eventForm(r, e); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.CreateEvent(r.Context(), e); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "life_event_added", fmt.Sprintf("Added life event for %s: %s", p.Name, e.Category))
	s.flash(r, "success", "Life event added successfully!")
	s.redirect(w, r, playerURL(p.ID))
}

func (s *Server) loadEvent(w http.ResponseWriter, r *http.Request) (*model.LifeEvent, *model.Player, bool) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	e, err := s.store.EventByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	p, err := s.store.PlayerByID(r.Context(), e.PlayerID)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return e, p, true
}

func (s *Server) handleEditEventForm(w http.ResponseWriter, r *http.Request) {
	e, p, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "event_form", "Edit Life Event", map[string]any{
		"Player": p,
		"Event":  e,
		"Action": fmt.Sprintf("/edit_life_event/%d", e.ID),
	})
}

func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	e, p, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	if err := eventForm(r, e); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.UpdateEvent(r.Context(), e); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "life_event_edited", fmt.Sprintf("Edited life event ID: %d", e.ID))
	s.flash(r, "success", "Life event updated successfully!")
	s.redirect(w, r, playerURL(p.ID))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	e, p, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteEvent(r.Context(), e.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.audit(r, "life_event_deleted", fmt.Sprintf("Deleted life event ID: %d", e.ID))
	s.flash(r, "success", "Life event deleted successfully!")
	s.redirect(w, r, playerURL(p.ID))
}
