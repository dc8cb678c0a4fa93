// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/keychain"
	"gridwatch/internal/model"
	"gridwatch/internal/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return NewService(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{"admin", "analyst", "viewer"} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "Admin", "root"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true", role)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "correct horse" || !CheckPassword(hash, "correct horse") {
		t.Error("hash does not verify")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("wrong password verified")
	}
}

func TestRegister(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Username: "sam", Email: "sam@example.com", Password: "password1", Confirm: "password1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Role != model.RoleViewer || u.ID == 0 {
		t.Errorf("registered user = %+v", u)
	}

	tests := []struct {
		name string
		reg  Registration
		kind apperrors.Kind
		msg  string
	}{
		{"short password", Registration{"kim", "kim@example.com", "short", "short"}, apperrors.Invalid, "Password must be at least 8 characters long."},
		{"mismatch", Registration{"kim", "kim@example.com", "password1", "password2"}, apperrors.Invalid, "Passwords do not match."},
		{"username taken", Registration{"sam", "other@example.com", "password1", "password1"}, apperrors.Conflict, "Username already exists."},
		{"email taken", Registration{"kim", "sam@example.com", "password1", "password1"}, apperrors.Conflict, "Email already registered."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.reg)
			if !apperrors.Is(err, tt.kind) || apperrors.MessageOf(err) != tt.msg {
				t.Errorf("Register() error = %v, want %s %q", err, tt.kind, tt.msg)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, Registration{"sam", "sam@example.com", "password1", "password1"}); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Authenticate(ctx, " sam ", "password1")
	if err != nil || u.Username != "sam" {
		t.Fatalf("Authenticate() = %+v, %v", u, err)
	}
	for _, c := range [][2]string{{"sam", "nope"}, {"ghost", "password1"}} {
		if _, err := svc.Authenticate(ctx, c[0], c[1]); !apperrors.Is(err, apperrors.Unauthenticated) {
			t.Errorf("Authenticate(%q) error = %v", c[0], err)
		}
	}
}

func TestEnsureDefaultAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.EnsureDefaultAdmin(ctx, "")
	if err != nil || !created {
		t.Fatalf("EnsureDefaultAdmin() = %v, %v", created, err)
	}
	u, err := svc.Authenticate(ctx, DefaultAdminUsername, DefaultAdminPassword)
	if err != nil || u.Role != model.RoleAdmin || u.Email != DefaultAdminEmail {
		t.Fatalf("admin = %+v, %v", u, err)
	}

	created, err = svc.EnsureDefaultAdmin(ctx, "other")
	if err != nil || created {
		t.Errorf("second EnsureDefaultAdmin() = %v, %v", created, err)
	}
}

func TestSetRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, Registration{"sam", "sam@example.com", "password1", "password1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SetRole(ctx, u.ID, "superuser"); !apperrors.Is(err, apperrors.Invalid) {
		t.Errorf("SetRole(invalid) error = %v", err)
	}
	if err := svc.SetRole(ctx, u.ID, "analyst"); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.User(ctx, u.ID)
	if !got.IsAnalyst() || got.IsAdmin() {
		t.Errorf("role = %s", got.Role)
	}
	if err := svc.SetRole(ctx, 9999, "viewer"); !apperrors.Is(err, apperrors.NotFound) {
		t.Errorf("SetRole(missing) error = %v", err)
	}
}

func TestSessions(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions("test-secret")
	s.Now = func() time.Time { return now }

	tests := []struct {
		name     string
		remember bool
		persist  bool
		validFor time.Duration
	}{
		{"session cookie", false, false, SessionTTL},
		{"remember me", true, true, RememberTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := s.Issue(rec, 42, tt.remember); err != nil {
				t.Fatal(err)
			}
			cookies := rec.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("cookies = %v", cookies)
			}
			c := cookies[0]
			if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || (c.MaxAge > 0) != tt.persist {
				t.Errorf("cookie = %+v", c)
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			if id, err := s.UserID(req); err != nil || id != 42 {
				t.Errorf("UserID() = %d, %v", id, err)
			}

			s.Now = func() time.Time { return now.Add(tt.validFor + time.Minute) }
			defer func() { s.Now = func() time.Time { return now } }()
			if _, err := s.UserID(req); !apperrors.Is(err, apperrors.Unauthenticated) {
				t.Errorf("expired UserID() error = %v", err)
			}
		})
	}
}

func TestSessionsRejectForeignTokens(t *testing.T) {
	a := NewSessions("secret-a")
	b := NewSessions("secret-b")
	rec := httptest.NewRecorder()
	if err := a.Issue(rec, 7, false); err != nil {
		t.Fatal(err)
	}
	token := rec.Result().Cookies()[0].Value

	if _, err := b.Parse(token); !apperrors.Is(err, apperrors.Unauthenticated) {
		t.Errorf("Parse(other secret) error = %v", err)
	}
	if _, err := a.Parse("garbage"); !apperrors.Is(err, apperrors.Unauthenticated) {
		t.Errorf("Parse(garbage) error = %v", err)
	}
	if _, err := a.UserID(httptest.NewRequest(http.MethodGet, "/", nil)); !apperrors.Is(err, apperrors.Unauthenticated) {
		t.Errorf("UserID(no cookie) error = %v", err)
	}

	rec = httptest.NewRecorder()
	a.Clear(rec)
	if c := rec.Result().Cookies()[0]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("Clear() cookie = %+v", c)
	}
}

func TestResolveSecret(t *testing.T) {
	if s, ok, err := ResolveSecret("configured", nil); err != nil || !ok || s != "configured" {
		t.Errorf("ResolveSecret(configured) = %q, %v, %v", s, ok, err)
	}

	ephemeral, ok, err := ResolveSecret("", nil)
	if err != nil || ok || len(ephemeral) != 64 {
		t.Errorf("ResolveSecret(no store) = %q, %v, %v", ephemeral, ok, err)
	}

	km := keychain.NewWithRing(keyring.NewArrayKeyring(nil))
	first, ok, err := ResolveSecret("", km)
	if err != nil || !ok {
		t.Fatalf("ResolveSecret(store) = %v, %v", ok, err)
	}
	second, _, _ := ResolveSecret("", km)
	if first != second {
		t.Errorf("secret not persisted: %q != %q", first, second)
	}
	if _, err := km.LoadSessionSecret(); errors.Is(err, keychain.ErrNotFound) {
		t.Error("secret missing from keychain")
	}
}
