// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegiv/heritage-archive/internal/rpc"
)

func (rt *Router) registerAuth(reg *rpc.Registry) {
	reg.Query("auth.me", rpc.TierPublic, func(_ context.Context, call *rpc.Call) (any, error) {
		if call.Principal == nil {
			return nil, nil
		}
		return call.Principal, nil
	})

	reg.Mutation("auth.logout", rpc.TierPublic, func(ctx context.Context, _ *rpc.Call) (any, error) {
		if rt.sessions == nil {
			return nil, rpc.Internal(errors.New("no session manager configured"))
		}
		if err := rt.sessions.Destroy(ctx); err != nil {
			return nil, rpc.Internal(fmt.Errorf("destroying session: %w", err))
		}
		return success, nil
	})
}
