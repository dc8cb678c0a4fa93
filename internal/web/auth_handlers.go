// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"fmt"
	"net/http"

	"gridwatch/internal/auth"
	apperrors "gridwatch/internal/errors"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		s.redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "login", "Login", map[string]any{
		"Next":     r.URL.Query().Get("next"),
		"Username": "",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		s.redirect(w, r, "/")
		return
	}
	username := formString(r, "username")
	u, err := s.auth.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if !apperrors.Is(err, apperrors.Unauthenticated) {
			s.fail(w, r, err)
			return
		}
		s.auditAs(r, nil, "failed_login", fmt.Sprintf("Failed login attempt for username: %s", username))
		s.flash(r, "danger", apperrors.MessageOf(err))
		s.render(w, r, http.StatusUnauthorized, "login", "Login", map[string]any{
			"Next":     r.URL.Query().Get("next"),
			"Username": username,
		})
		return
	}

	if err := s.sessions.Issue(w, u.ID, r.PostFormValue("remember") != ""); err != nil {
		s.fail(w, r, err)
		return
	}
	s.auditAs(r, u, "login", fmt.Sprintf("User %s logged in", u.Username))
	s.flash(r, "success", fmt.Sprintf("Welcome back, %s!", u.Username))
	s.redirect(w, r, localPath(r.URL.Query().Get("next")))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.audit(r, "logout", fmt.Sprintf("User %s logged out", u.Username))
	s.sessions.Clear(w)
	s.flash(r, "info", "You have been logged out.")
	s.redirect(w, r, "/login")
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		s.redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "register", "Register", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	reg := auth.Registration{
		Username: formString(r, "username"),
		Email:    formString(r, "email"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
	}
	u, err := s.auth.Register(r.Context(), reg)
	if err != nil {
		kind := apperrors.KindOf(err)
		if kind != apperrors.Invalid && kind != apperrors.Conflict {
			s.fail(w, r, err)
			return
		}
		s.flash(r, "danger", apperrors.MessageOf(err))
		s.render(w, r, http.StatusOK, "register", "Register", map[string]any{
			"Username": reg.Username,
			"Email":    reg.Email,
		})
		return
	}
	s.auditAs(r, u, "user_registered", fmt.Sprintf("New user registered: %s", u.Username))
	s.flash(r, "success", "Registration successful! Please log in.")
	s.redirect(w, r, "/login")
}
