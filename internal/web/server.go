// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package web serves the gridwatch HTML application: player records, life
// events, analytics pages, matchup projections and the admin screens.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gridwatch/internal/auth"
	"gridwatch/internal/nflverse"
	"gridwatch/internal/store"
)

// Config defines the inputs for the web server.
type Config struct {
	Addr     string
	Store    *store.Store
	Auth     *auth.Service
	Sessions *auth.Sessions
	NFL      *nflverse.Client
	Logger   *slog.Logger
	// Templates holds layout.html and one file per page at its root.
	Templates fs.FS
	// Static is served under /static/.
	Static fs.FS
	// Reload re-parses templates on every render.
	Reload bool
}

// Server hosts the web application.
type Server struct {
	addr       string
	store      *store.Store
	auth       *auth.Service
	sessions   *auth.Sessions
	nfl        *nflverse.Client
	log        *slog.Logger
	pages      *pages
	templates  fs.FS
	reload     bool
	static     fs.FS
	handler    http.Handler
	httpServer *http.Server
}

// NewServer builds a configured web server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Auth == nil || cfg.Sessions == nil || cfg.NFL == nil {
		return nil, errors.New("web server requires store, auth, sessions and nflverse client")
	}
	if cfg.Templates == nil {
		return nil, errors.New("web server requires templates")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	p, err := loadPages(cfg.Templates)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:      strings.TrimSpace(cfg.Addr),
		store:     cfg.Store,
		auth:      cfg.Auth,
		sessions:  cfg.Sessions,
		nfl:       cfg.NFL,
		log:       cfg.Logger,
		pages:     p,
		templates: cfg.Templates,
		reload:    cfg.Reload,
		static:    cfg.Static,
	}
	s.handler = s.withRecover(s.withUser(s.routes()))
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.addr == "" {
		return errors.New("http address is required")
	}
	serveErr := make(chan error, 1)
	s.log.Info("web listening", "addr", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.requireLogin(s.handleLogout))
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	}

	mux.HandleFunc("GET /{$}", s.requireLogin(s.handleIndex))
	mux.HandleFunc("GET /player/{id}", s.requireLogin(s.handlePlayerDetail))
	mux.HandleFunc("GET /add_player", s.requireAnalyst(s.handleAddPlayerForm))
	mux.HandleFunc("POST /add_player", s.requireAnalyst(s.handleAddPlayer))
	mux.HandleFunc("GET /edit_player/{id}", s.requireAnalyst(s.handleEditPlayerForm))
	mux.HandleFunc("POST /edit_player/{id}", s.requireAnalyst(s.handleEditPlayer))
	mux.HandleFunc("POST /delete_player/{id}", s.requireAdmin(s.handleDeletePlayer))
	mux.HandleFunc("POST /link_player/{id}", s.requireAnalyst(s.handleLinkPlayer))

	mux.HandleFunc("GET /add_stats/{id}", s.requireAnalyst(s.handleAddStatsForm))
	mux.HandleFunc("POST /add_stats/{id}", s.requireAnalyst(s.handleAddStats))
	mux.HandleFunc("GET /edit_stats/{id}", s.requireAnalyst(s.handleEditStatsForm))
	mux.HandleFunc("POST /edit_stats/{id}", s.requireAnalyst(s.handleEditStats))
	mux.HandleFunc("POST /delete_stats/{id}", s.requireAdmin(s.handleDeleteStats))

	mux.HandleFunc("GET /add_life_event/{id}", s.requireAnalyst(s.handleAddEventForm))
	mux.HandleFunc("POST /add_life_event/{id}", s.requireAnalyst(s.handleAddEvent))
	mux.HandleFunc("GET /edit_life_event/{id}", s.requireAnalyst(s.handleEditEventForm))
	mux.HandleFunc("POST /edit_life_event/{id}", s.requireAnalyst(s.handleEditEvent))
	mux.HandleFunc("POST /delete_life_event/{id}", s.requireAdmin(s.handleDeleteEvent))

	mux.HandleFunc("GET /analytics", s.requireLogin(s.handleAnalytics))
	mux.HandleFunc("GET /player_analytics/{id}", s.requireLogin(s.handlePlayerAnalytics))

	mux.HandleFunc("GET /api_test", s.requireLogin(s.handleAPITest))
	mux.HandleFunc("POST /api_search_player", s.requireLogin(s.handleSearchPlayer))
	mux.HandleFunc("POST /api_fetch_stats/{id}", s.requireAnalyst(s.handleFetchStats))

	mux.HandleFunc("GET /admin/users", s.requireAdmin(s.handleAdminUsers))
	mux.HandleFunc("POST /admin/change_role/{id}", s.requireAdmin(s.handleChangeRole))
	mux.HandleFunc("GET /admin/audit_logs", s.requireAdmin(s.handleAuditLogs))

	mux.HandleFunc("GET /add_upcoming_game/{id}", s.requireAnalyst(s.handleAddGameForm))
	mux.HandleFunc("POST /add_upcoming_game/{id}", s.requireAnalyst(s.handleAddGame))
	mux.HandleFunc("GET /matchup/{id}", s.requireLogin(s.handleMatchup))
	mux.HandleFunc("GET /add_team_defense", s.requireAnalyst(s.handleAddDefenseForm))
	mux.HandleFunc("POST /add_team_defense", s.requireAnalyst(s.handleAddDefense))
	mux.HandleFunc("GET /import_team_defense", s.requireAnalyst(s.handleImportDefenseForm))
	mux.HandleFunc("POST /import_team_defense", s.requireAnalyst(s.handleImportDefense))
	mux.HandleFunc("GET /view_team_defense", s.requireLogin(s.handleViewDefense))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
