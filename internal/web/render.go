// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

const layoutFile = "layout.html"

// pages holds one template set per page, each sharing the layout.
type pages struct {
	set map[string]*template.Template
}

var titleCaser = cases.Title(language.English)

var positions = []string{"WR", "TE", "RB", "QB"}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(model.DateLayout)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"f1":     func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"f3":     func(f float64) string { return fmt.Sprintf("%.3f", f) },
	"f4":     func(f float64) string { return fmt.Sprintf("%.4f", f) },
	"signed": func(f float64) string { return fmt.Sprintf("%+.1f", f) },
	"opt": func(f *float64) string {
		if f == nil {
			return "-"
		}
		return fmt.Sprintf("%.1f", *f)
	},
	"label": func(s string) string {
		return titleCaser.String(strings.ReplaceAll(s, "_", " "))
	},
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
	"roles":      func() []model.Role { return model.Roles },
	"positions":  func() []string { return positions },
	"categories": func() []string { return model.EventCategories },
}

func loadPages(fsys fs.FS) (*pages, error) {
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	p := &pages{set: make(map[string]*template.Template)}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		t, err := template.New(layoutFile).Funcs(funcs).ParseFS(fsys, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.set[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	if len(p.set) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return p, nil
}

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

const flashCookie = "gridwatch_flash"

// view is the data every page receives.
type view struct {
	Title   string
	User    *model.User
	Flashes []flash
	Data    any
}

// render writes page with the layout. Pending and stored flashes are
// consumed.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	set := s.pages
	if s.reload {
		p, err := loadPages(s.templates)
		if err != nil {
			s.log.Error("reload templates", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		set = p
	}
	t, ok := set.set[page]
	if !ok {
		s.log.Error("missing template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	st := stateOf(r)
	v := view{Title: title, User: st.user, Data: data}
	v.Flashes = append(readFlashes(r), st.flashes...)
	st.flashes = nil

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutFile, v); err != nil {
		s.log.Error("render template", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if _, err := r.Cookie(flashCookie); err == nil {
		http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// flash queues a message for the next rendered page.
func (s *Server) flash(r *http.Request, category, message string) {
	st := stateOf(r)
	st.flashes = append(st.flashes, flash{Category: category, Message: message})
}

// redirect stores queued flashes in a cookie and sends a 303.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	st := stateOf(r)
	if len(st.flashes) > 0 {
		all := append(readFlashes(r), st.flashes...)
		st.flashes = nil
		if b, err := json.Marshal(all); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     flashCookie,
				Value:    base64.RawURLEncoding.EncodeToString(b),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func readFlashes(r *http.Request) []flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var out []flash
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// fail renders the error page for err with the status of its kind.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)
	msg := apperrors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "Something went wrong. Please try again."
	}
	s.render(w, r, status, "error", http.StatusText(status), map[string]any{
		"Status":  status,
		"Message": msg,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write json", "error", err)
	}
}
