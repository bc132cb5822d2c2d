// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/store"
)

// Accounts turns provider identities into users.
type Accounts struct {
	queries      *store.Queries
	isAdminEmail func(string) bool
	now          func() time.Time
}

// NewAccounts creates Accounts. isAdminEmail decides the role of a user
// created on first sign-in.
func NewAccounts(db store.DBTX, isAdminEmail func(string) bool) *Accounts {
	if isAdminEmail == nil {
		isAdminEmail = func(string) bool { return false }
	}
	return &Accounts{
		queries:      store.New(db),
		isAdminEmail: isAdminEmail,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Sync creates the user on first sign-in or refreshes name, email and the
// sign-in time on later ones. The role is only assigned at creation.
func (a *Accounts) Sync(ctx context.Context, id Identity, loginMethod string) (model.User, error) {
	if id.OpenID == "" {
		return model.User{}, ErrNoIdentity
	}
	now := a.now()

	user, err := a.queries.GetUserByOpenID(ctx, id.OpenID)
	if errors.Is(err, sql.ErrNoRows) {
		role := model.RoleUser
		if a.isAdminEmail(id.Email) {
			role = model.RoleAdmin
		}
		user, err = a.queries.CreateUser(ctx, store.CreateUserParams{
			OpenID:       id.OpenID,
			Name:         id.Name,
			Email:        id.Email,
			LoginMethod:  loginMethod,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
			LastSignedIn: now,
		})
		if err == nil {
			return user, nil
		}
		if !store.IsUniqueViolation(err) {
			return model.User{}, fmt.Errorf("creating user: %w", err)
		}
		// A concurrent first sign-in won the insert.
		user, err = a.queries.GetUserByOpenID(ctx, id.OpenID)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}

	user, err = a.queries.UpdateUserSignIn(ctx, store.UpdateUserSignInParams{
		ID:           user.ID,
		Name:         id.Name,
		Email:        id.Email,
		LoginMethod:  loginMethod,
		UpdatedAt:    now,
		LastSignedIn: now,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("refreshing user: %w", err)
	}
	return user, nil
}
