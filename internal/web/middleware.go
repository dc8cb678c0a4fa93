// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"gridwatch/internal/auth"
	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

type stateKey struct{}

// requestState carries the session user and queued flashes.
type requestState struct {
	user    *model.User
	flashes []flash
}

func stateOf(r *http.Request) *requestState {
	if st, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return st
	}
	return &requestState{}
}

func currentUser(r *http.Request) *model.User { return stateOf(r).user }

// withUser resolves the session cookie into a user. Stale or invalid
// sessions are cleared.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &requestState{}
		if id, err := s.sessions.UserID(r); err == nil {
			u, err := s.auth.User(r.Context(), id)
			switch {
			case err == nil:
				st.user = u
			case apperrors.Is(err, apperrors.NotFound):
				s.sessions.Clear(w)
			default:
				s.log.Warn("load session user", "error", err)
			}
		} else if _, cerr := r.Cookie(auth.CookieName); cerr == nil {
			s.sessions.Clear(w)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), stateKey{}, st)))
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.log.Error("panic serving request", "path", r.URL.Path, "panic", v)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			s.flash(r, "info", "Please log in to access this page.")
			s.redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()))
			return
		}
		next(w, r)
	}
}

func (s *Server) requireAnalyst(next http.HandlerFunc) http.HandlerFunc {
	return s.requireLogin(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAnalyst() {
			s.flash(r, "danger", "You need analyst privileges to access this page.")
			s.redirect(w, r, "/")
			return
		}
		next(w, r)
	})
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireLogin(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin() {
			s.flash(r, "danger", "You need administrator privileges to access this page.")
			s.redirect(w, r, "/")
			return
		}
		next(w, r)
	})
}

// audit records action for the current user. Failures are logged only.
func (s *Server) audit(r *http.Request, action, details string) {
	s.auditAs(r, currentUser(r), action, details)
}

// auditAs records action for a user who is not yet in the request state,
// such as right after login.
func (s *Server) auditAs(r *http.Request, u *model.User, action, details string) {
	e := &model.AuditEntry{Action: action, Details: details, IPAddress: clientIP(r)}
	if u != nil {
		id := u.ID
		e.UserID = &id
	}
	if err := s.store.InsertAudit(r.Context(), e); err != nil {
		s.log.Warn("write audit log", "action", action, "error", err)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// localPath keeps only same-site redirect targets.
func localPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
