// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"fmt"
	"net/http"

	apperrors "gridwatch/internal/errors"
)

const auditPageSize = 100

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_users", "Users", map[string]any{"Users": users})
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.auth.User(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	role := formString(r, "role")
	if err := s.auth.SetRole(r.Context(), u.ID, role); err != nil {
		if apperrors.Is(err, apperrors.Invalid) {
			s.flash(r, "danger", apperrors.MessageOf(err))
			s.redirect(w, r, "/admin/users")
			return
		}
		s.fail(w, r, err)
		return
	}
	s.audit(r, "role_changed", fmt.Sprintf("Changed %s role to %s", u.Username, role))
	s.flash(r, "success", fmt.Sprintf("User %s role changed to %s.", u.Username, role))
	s.redirect(w, r, "/admin/users")
}

func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.RecentAudit(r.Context(), auditPageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "audit_logs", "Audit Logs", map[string]any{"Logs": logs})
}
