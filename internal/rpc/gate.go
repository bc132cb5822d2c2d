// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"context"
	"fmt"
)

// Tier is the capability a caller needs to invoke a procedure.
type Tier int

// Capability tiers.
const (
	TierPublic Tier = iota
	TierAuthenticated
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierPublic:
		return "public"
	case TierAuthenticated:
		return "authenticated"
	case TierAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Public lets every caller through.
func Public(h Handler) Handler {
	return h
}

// Authenticated rejects calls without a principal.
func Authenticated(h Handler) Handler {
	return func(ctx context.Context, call *Call) (any, error) {
		if call.Principal == nil {
			return nil, Unauthenticated()
		}
		return h(ctx, call)
	}
}

// requireAdmin rejects principals without the admin role. It assumes a
// principal is present and is only used behind Authenticated.
func requireAdmin(h Handler) Handler {
	return func(ctx context.Context, call *Call) (any, error) {
		if !call.Principal.IsAdmin() {
			return nil, Forbidden()
		}
		return h(ctx, call)
	}
}

// AdminOnly rejects anonymous callers as unauthenticated and non-admin
// principals as forbidden.
func AdminOnly(h Handler) Handler {
	return Authenticated(requireAdmin(h))
}

// Guard wraps h with the gate for tier.
func Guard(tier Tier, h Handler) Handler {
	switch tier {
	case TierAuthenticated:
		return Authenticated(h)
	case TierAdmin:
		return AdminOnly(h)
	default:
		return Public(h)
	}
}
