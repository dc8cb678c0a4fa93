// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"fmt"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/model"
)

const userColumns = "id, username, email, password_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, timeCol{&u.CreatedAt}); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, "users")
}

// CreateUser inserts u and sets its ID. A taken username or email is a Conflict.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleViewer
	}
	id, err := s.insert(ctx,
		"INSERT INTO users (username, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.Email, u.PasswordHash, string(u.Role), s.now())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.Conflict, "username or email already exists", err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *Store) userBy(ctx context.Context, column string, value any) (*model.User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// UserByID loads a user.
func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userBy(ctx, "id", id)
}

// UserByUsername loads a user by exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userBy(ctx, "username", username)
}

// UserByEmail loads a user by exact email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userBy(ctx, "email", email)
}

// ListUsers returns every account ordered by creation.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetUserRole changes a user's role.
func (s *Store) SetUserRole(ctx context.Context, id int64, role model.Role) error {
	res, err := s.exec(ctx, "UPDATE users SET role = ? WHERE id = ?", string(role), id)
	return affected(res, err, "user")
}
