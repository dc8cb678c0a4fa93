// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"gridwatch/internal/analytics"
	"gridwatch/internal/model"
	"gridwatch/internal/store"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	var (
		players, stats, events int
		active                 []model.PlayerActivity
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { players, err = s.store.CountPlayers(ctx); return err })
	g.Go(func() (err error) { stats, err = s.store.CountStats(ctx); return err })
	g.Go(func() (err error) { events, err = s.store.CountEvents(ctx); return err })
	g.Go(func() (err error) { active, err = s.store.PlayersWithStatsAndEvents(ctx); return err })
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "analytics", "Analytics", map[string]any{
		"TotalPlayers": players,
		"TotalStats":   stats,
		"TotalEvents":  events,
		"Players":      active,
	})
}

func (s *Server) handlePlayerAnalytics(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlayer(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
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
	s.render(w, r, http.StatusOK, "player_analytics", p.Name+" Analytics", map[string]any{
		"Player": p,
		"Report": analytics.PlayerReport(stats, events),
	})
}
