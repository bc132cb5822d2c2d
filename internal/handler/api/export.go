// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"

	"github.com/olegiv/heritage-archive/internal/rpc"
	"github.com/olegiv/heritage-archive/internal/transfer"
)

func (rt *Router) registerExport(reg *rpc.Registry) {
	reg.Query("export.exportDatabase", rpc.TierAdmin, func(ctx context.Context, _ *rpc.Call) (any, error) {
		snap, err := rt.exporter.Export(ctx)
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return snap, nil
	})

	reg.Query("export.getExportStats", rpc.TierAdmin, func(ctx context.Context, _ *rpc.Call) (any, error) {
		stats, err := rt.exporter.Stats(ctx)
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return stats, nil
	})

	reg.Query("export.exportContentType", rpc.TierAdmin, func(ctx context.Context, call *rpc.Call) (any, error) {
		kind, err := bindString(call, "type")
		if err != nil {
			return nil, err
		}
		out, err := rt.exporter.ExportKind(ctx, kind)
		switch {
		case errors.Is(err, transfer.ErrUnknownKind):
			return nil, rpc.BadField("type", "unknown content type")
		case err != nil:
			return nil, rpc.Internal(err)
		}
		return out, nil
	})
}
