// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/heritage-archive/internal/model"
)

const userColumns = `id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.OpenID,
		&u.Name,
		&u.Email,
		&u.LoginMethod,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastSignedIn,
	)
	return u, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID returns sql.ErrNoRows when the user does not exist.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByOpenID = `SELECT ` + userColumns + ` FROM users WHERE open_id = ?`

func (q *Queries) GetUserByOpenID(ctx context.Context, openID string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByOpenID, openID))
}

const createUser = `INSERT INTO users (open_id, name, email, login_method, role, created_at, updated_at, last_signed_in)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateUserParams struct {
	OpenID       string
	Name         string
	Email        string
	LoginMethod  string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSignedIn time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx, createUser,
		arg.OpenID,
		arg.Name,
		arg.Email,
		arg.LoginMethod,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
		arg.LastSignedIn,
	)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

const updateUserSignIn = `UPDATE users SET name = ?, email = ?, login_method = ?, updated_at = ?, last_signed_in = ?
WHERE id = ?`

type UpdateUserSignInParams struct {
	ID           int64
	Name         string
	Email        string
	LoginMethod  string
	UpdatedAt    time.Time
	LastSignedIn time.Time
}

// UpdateUserSignIn refreshes profile fields on a repeat sign-in. The role is
// deliberately not part of the statement.
func (q *Queries) UpdateUserSignIn(ctx context.Context, arg UpdateUserSignInParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx, updateUserSignIn,
		arg.Name,
		arg.Email,
		arg.LoginMethod,
		arg.UpdatedAt,
		arg.LastSignedIn,
		arg.ID,
	)
	if err != nil {
		return model.User{}, err
	}
	if err := checkAffected(res, "users"); err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}
