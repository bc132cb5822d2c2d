// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth implements sign-in through an external OAuth2 identity
// provider and the synchronization of signed-in identities into users.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultStateTTL bounds the time between login and callback.
	DefaultStateTTL = 10 * time.Minute

	stateIssuer   = "heritage-oauth"
	stateLeeway   = 15 * time.Second
	maxUserInfo   = 1 << 20
	userInfoLimit = 10 * time.Second
)

// Errors returned by Provider.
var (
	ErrInvalidState = errors.New("invalid oauth state")
	ErrNoIdentity   = errors.New("identity provider returned no subject")
)

// Identity is the signed-in account as reported by the provider.
type Identity struct {
	OpenID string
	Name   string
	Email  string
}

// ProviderConfig configures the identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
	// StateKey signs the state parameter (HS256).
	StateKey []byte
	StateTTL time.Duration
}

// StateClaims is the payload of the signed state parameter. Nonce is also
// kept in the caller's session so a state cannot be replayed in another
// browser.
type StateClaims struct {
	Nonce    string `json:"nonce"`
	ReturnTo string `json:"ret,omitempty"`
	jwt.RegisteredClaims
}

// Provider runs the authorization code flow with PKCE.
type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
	stateKey    []byte
	stateTTL    time.Duration
	now         func() time.Time
}

// NewProvider creates a Provider.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" || cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, errors.New("oauth client id, auth, token and userinfo URLs are required")
	}
	if len(cfg.StateKey) < 32 {
		return nil, errors.New("oauth state key must be at least 32 bytes")
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		stateKey:    cfg.StateKey,
		stateTTL:    ttl,
		now:         time.Now,
	}, nil
}

// LoginRequest is what the login handler must remember for the callback.
type LoginRequest struct {
	URL      string
	Nonce    string
	Verifier string
}

// Begin starts a login. returnTo is a local path to land on afterwards.
func (p *Provider) Begin(returnTo string) (*LoginRequest, error) {
	nonce := uuid.NewString()
	state, err := p.signState(nonce, SafeReturnPath(returnTo))
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()
	return &LoginRequest{
		URL:      p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		Nonce:    nonce,
		Verifier: verifier,
	}, nil
}

func (p *Provider) signState(nonce, returnTo string) (string, error) {
	now := p.now().UTC()
	claims := StateClaims{
		Nonce:    nonce,
		ReturnTo: returnTo,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.stateTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.stateKey)
	if err != nil {
		return "", fmt.Errorf("signing oauth state: %w", err)
	}
	return signed, nil
}

// VerifyState checks the signature, expiry and nonce of a state parameter.
func (p *Provider) VerifyState(state, nonce string) (*StateClaims, error) {
	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(*jwt.Token) (any, error) {
		return p.stateKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(stateLeeway),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if nonce == "" || claims.Nonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrInvalidState)
	}
	return claims, nil
}

// Exchange trades an authorization code for a token.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is missing")
	}
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

// FetchIdentity reads the account behind tok from the userinfo endpoint.
// The subject is taken from "sub", "openId" or "id", in that order.
func (p *Provider) FetchIdentity(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, userInfoLimit)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfo)).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("decoding userinfo: %w", err)
	}

	id := Identity{
		OpenID: firstString(info, "sub", "openId", "id"),
		Name:   firstString(info, "name", "preferred_username", "login"),
		Email:  strings.ToLower(firstString(info, "email")),
	}
	if id.OpenID == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// firstString returns the first non-empty value among keys. Numeric ids
// are formatted as integers.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// SafeReturnPath returns p when it is a local absolute path and "/"
// otherwise, so the callback never redirects off-site.
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
