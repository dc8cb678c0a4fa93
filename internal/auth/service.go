// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides account and session services for the gridwatch web app.
// It validates registrations, checks passwords, bootstraps the default admin
// and issues signed session cookies. Accounts live in the database; the
// session signing key comes from SECRET_KEY or the OS keychain.
package auth

import (
	"context"
	"log/slog"
	"strings"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

// Default admin account created on an empty database.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@football-analytics.com"
	DefaultAdminPassword = "admin123"
)

// Users is the account storage the service needs.
type Users interface {
	CountUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	SetUserRole(ctx context.Context, id int64, role model.Role) error
}

// Service centralizes account operations.
type Service struct {
	users Users
	log   *slog.Logger
}

// NewService constructs a Service over users.
func NewService(users Users, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, log: log}
}

// Registration is the sign-up form.
type Registration struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Register validates r and creates a viewer account. Validation failures are
// Invalid or Conflict errors whose message is safe to show.
func (s *Service) Register(ctx context.Context, r Registration) (*model.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if r.Username == "" || r.Email == "" {
		return nil, apperrors.New(apperrors.Invalid, "Username and email are required.")
	}
	if len(r.Password) < MinPasswordLength {
		return nil, apperrors.New(apperrors.Invalid, "Password must be at least 8 characters long.")
	}
	if r.Password != r.Confirm {
		return nil, apperrors.New(apperrors.Invalid, "Passwords do not match.")
	}
	if taken, err := exists(s.users.UserByUsername(ctx, r.Username)); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.New(apperrors.Conflict, "Username already exists.")
	}
	if taken, err := exists(s.users.UserByEmail(ctx, r.Email)); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.New(apperrors.Conflict, "Email already registered.")
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "hash password", err)
	}
	u := &model.User{Username: r.Username, Email: r.Email, PasswordHash: hash, Role: model.RoleViewer}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func exists(u *model.User, err error) (bool, error) {
	if apperrors.Is(err, apperrors.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// Authenticate returns the user when username and password match.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil && !apperrors.Is(err, apperrors.NotFound) {
		return nil, err
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		return nil, apperrors.New(apperrors.Unauthenticated, "Invalid username or password.")
	}
	return u, nil
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id int64) (*model.User, error) {
	return s.users.UserByID(ctx, id)
}

// EnsureDefaultAdmin creates the admin account when no users exist. An empty
// password means DefaultAdminPassword.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, password string) (bool, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if password == "" {
		password = DefaultAdminPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, apperrors.Wrap(apperrors.Internal, "hash password", err)
	}
	u := &model.User{
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return false, err
	}
	s.log.Info("Created default admin user", "username", u.Username)
	if password == DefaultAdminPassword {
		s.log.Warn("Default admin password is in use; set ADMIN_PASSWORD or change it")
	}
	return true, nil
}

// SetRole changes a user's role.
func (s *Service) SetRole(ctx context.Context, userID int64, role string) error {
	if !ValidRole(role) {
		return apperrors.New(apperrors.Invalid, "Invalid role.")
	}
	return s.users.SetUserRole(ctx, userID, model.Role(role))
}
