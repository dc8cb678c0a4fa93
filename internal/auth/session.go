// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "gridwatch/internal/errors"
)

// CookieName is the session cookie.
const CookieName = "gridwatch_session"

// Session lifetimes.
const (
	SessionTTL  = 12 * time.Hour
	RememberTTL = 365 * 24 * time.Hour
)

// Sessions issues and verifies signed session cookies.
type Sessions struct {
	secret []byte
	// Secure marks cookies HTTPS-only.
	Secure bool
	// Now is the clock used for issue and expiry checks.
	Now func() time.Time
}

// NewSessions returns a session signer for secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret), Now: time.Now}
}

// Issue signs a token for userID and sets it as the session cookie. Without
// remember the cookie lasts for the browser session.
func (s *Sessions) Issue(w http.ResponseWriter, userID int64, remember bool) error {
	now := s.Now().UTC()
	ttl := SessionTTL
	if remember {
		ttl = RememberTTL
	}
	exp := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.Expires = exp
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
	return nil
}

// UserID returns the user id carried by the request's session cookie.
func (s *Sessions) UserID(r *http.Request) (int64, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return 0, apperrors.New(apperrors.Unauthenticated, "no session")
	}
	return s.Parse(c.Value)
}

// Parse verifies token and returns its subject.
func (s *Sessions) Parse(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.Unauthenticated, "invalid session", err)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(s.Now()) {
		return 0, apperrors.New(apperrors.Unauthenticated, "session expired")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.Unauthenticated, "invalid session subject")
	}
	return id, nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SecretStore persists the generated signing key.
type SecretStore interface {
	LoadSessionSecret() (string, error)
	SaveSessionSecret(secret string) error
}

// ResolveSecret picks the signing key: configured when set, else the stored
// one, else a new random key that is saved to store. store may be nil, in
// which case the random key lives only for this process.
func ResolveSecret(configured string, store SecretStore) (secret string, persisted bool, err error) {
	if configured != "" {
		return configured, true, nil
	}
	if store != nil {
		if s, err := store.LoadSessionSecret(); err == nil && s != "" {
			return s, true, nil
		}
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", false, err
	}
	secret = hex.EncodeToString(b)
	if store == nil {
		return secret, false, nil
	}
	if err := store.SaveSessionSecret(secret); err != nil {
		return secret, false, errors.Join(errors.New("save session secret"), err)
	}
	return secret, true, nil
}
