// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/heritage-archive/internal/auth"
	"github.com/olegiv/heritage-archive/internal/session"
)

// Session keys holding the pending login between redirect and callback.
const (
	sessionKeyOAuthNonce    = "oauth_nonce"
	sessionKeyOAuthVerifier = "oauth_verifier"
)

// OAuthHandler runs the sign-in round trip with the identity provider.
type OAuthHandler struct {
	provider    *auth.Provider
	accounts    *auth.Accounts
	sm          *scs.SessionManager
	loginMethod string
	logger      *slog.Logger
}

// NewOAuthHandler creates a new OAuth handler. loginMethod is recorded on
// the user row.
func NewOAuthHandler(provider *auth.Provider, accounts *auth.Accounts, sm *scs.SessionManager, loginMethod string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		accounts:    accounts,
		sm:          sm,
		loginMethod: loginMethod,
		logger:      logger,
	}
}

// Login handles GET /api/oauth/login. The optional returnTo query parameter
// names the local page to land on after a successful sign-in.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.provider.Begin(r.URL.Query().Get("returnTo"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to start oauth login", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Unable to start sign-in")
		return
	}

	h.sm.Put(r.Context(), sessionKeyOAuthNonce, req.Nonce)
	h.sm.Put(r.Context(), sessionKeyOAuthVerifier, req.Verifier)

	http.Redirect(w, r, req.URL, http.StatusFound)
}

// Callback handles GET /api/oauth/callback. Any failure lands on the home
// page without a session.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// The pending login is single use.
	nonce := h.sm.PopString(ctx, sessionKeyOAuthNonce)
	verifier := h.sm.PopString(ctx, sessionKeyOAuthVerifier)

	if providerErr := q.Get("error"); providerErr != "" {
		h.logger.WarnContext(ctx, "identity provider refused sign-in", "error", providerErr)
		h.fail(w, r)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.WarnContext(ctx, "oauth callback without code")
		h.fail(w, r)
		return
	}

	claims, err := h.provider.VerifyState(q.Get("state"), nonce)
	if err != nil {
		h.logger.WarnContext(ctx, "oauth state rejected", "error", err)
		h.fail(w, r)
		return
	}

	tok, err := h.provider.Exchange(ctx, code, verifier)
	if err != nil {
		h.logger.ErrorContext(ctx, "oauth code exchange failed", "error", err)
		h.fail(w, r)
		return
	}

	identity, err := h.provider.FetchIdentity(ctx, tok)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to fetch oauth identity", "error", err)
		h.fail(w, r)
		return
	}

	user, err := h.accounts.Sync(ctx, identity, h.loginMethod)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sync user", "open_id", identity.OpenID, "error", err)
		h.fail(w, r)
		return
	}

	if err := session.SignIn(ctx, h.sm, user.ID); err != nil {
		h.logger.ErrorContext(ctx, "failed to sign in", "user_id", user.ID, "error", err)
		h.fail(w, r)
		return
	}

	h.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	http.Redirect(w, r, auth.SafeReturnPath(claims.ReturnTo), http.StatusFound)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
