// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session transport and the sign-in
// and sign-out operations on it.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/heritage-archive/internal/middleware"
	"github.com/olegiv/heritage-archive/internal/store"
)

// Lifetime is the absolute session lifetime.
const Lifetime = 7 * 24 * time.Hour

// Cookie names; production uses the __Host- prefix, which requires Secure.
const (
	CookieName       = "heritage_session"
	SecureCookieName = "__Host-heritage_session"
)

// New creates a session manager. Sessions live in the sessions table of
// db; without a database they are kept in memory.
func New(db *store.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	switch {
	case db == nil || db.DB == nil:
		sm.Store = memstore.New()
	case db.Dialect == store.DialectMySQL:
		sm.Store = mysqlstore.New(db.DB)
	default:
		sm.Store = sqlite3store.New(db.DB)
	}

	sm.Lifetime = Lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = SecureCookieName
	}

	return sm
}

// Terminator ends the session bound to a request context.
// *scs.SessionManager satisfies it.
type Terminator interface {
	Destroy(ctx context.Context) error
}

var _ Terminator = (*scs.SessionManager)(nil)

// SignIn binds userID to the session, renewing the token first to prevent
// session fixation.
func SignIn(ctx context.Context, sm *scs.SessionManager, userID int64) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, middleware.SessionKeyUserID, userID)
	return nil
}
