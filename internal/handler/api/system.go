// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"time"

	"github.com/olegiv/heritage-archive/internal/rpc"
)

// Health is the result of system.health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
}

func (rt *Router) registerSystem(reg *rpc.Registry) {
	reg.Query("system.health", rpc.TierPublic, func(ctx context.Context, _ *rpc.Call) (any, error) {
		h := Health{
			Status:   "ok",
			Database: "ok",
			Version:  rt.version,
			Uptime:   time.Since(rt.started).Round(time.Second).String(),
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rt.db.PingContext(ctx); err != nil {
			rt.logger.WarnContext(ctx, "health check: database unreachable", "error", err)
			h.Status = "degraded"
			h.Database = "unreachable"
		}
		return h, nil
	})
}
