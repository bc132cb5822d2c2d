// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"

	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/rpc"
)

// registerKind adds the generic procedures of one content kind:
// getPublished, getFeatured, getBySlug, getAll, create, update and delete.
func (rt *Router) registerKind(reg *rpc.Registry, s *content.Store) {
	kind := s.Kind()

	rt.publicRead(reg, kind+".getPublished", func(ctx context.Context, call *rpc.Call) (any, error) {
		filter, err := content.FilterFromJSON(call.Params)
		if err != nil {
			return nil, storeError(err)
		}
		records, err := s.GetPublished(ctx, filter)
		return records, storeError(err)
	})

	rt.publicRead(reg, kind+".getFeatured", func(ctx context.Context, call *rpc.Call) (any, error) {
		limit, err := bindLimit(call, content.MaxListLimit)
		if err != nil {
			return nil, err
		}
		records, err := s.GetFeatured(ctx, limit)
		return records, storeError(err)
	})

	rt.publicRead(reg, kind+".getBySlug", func(ctx context.Context, call *rpc.Call) (any, error) {
		slug, err := bindString(call, "slug")
		if err != nil {
			return nil, err
		}
		rec, err := s.GetBySlug(ctx, slug, call.Principal.IsAdmin())
		if err != nil {
			return nil, storeError(err)
		}
		if rec == nil {
			return nil, nil
		}
		return rec, nil
	})

	reg.Query(kind+".getAll", rpc.TierAdmin, func(ctx context.Context, call *rpc.Call) (any, error) {
		filter, err := content.FilterFromJSON(call.Params)
		if err != nil {
			return nil, storeError(err)
		}
		records, err := s.GetAll(ctx, filter)
		return records, storeError(err)
	})

	rt.adminWrite(reg, kind+".create", func(ctx context.Context, call *rpc.Call) (any, error) {
		in, err := bindInput(call)
		if err != nil {
			return nil, err
		}
		rec, err := s.Create(ctx, call.Principal.ID, in)
		if err != nil {
			return nil, storeError(err)
		}
		return rec, nil
	})

	rt.adminWrite(reg, kind+".update", func(ctx context.Context, call *rpc.Call) (any, error) {
		in, err := bindInput(call)
		if err != nil {
			return nil, err
		}
		id, err := takeID(in)
		if err != nil {
			return nil, err
		}
		rec, err := s.Update(ctx, id, in)
		if err != nil {
			return nil, storeError(err)
		}
		return rec, nil
	})

	rt.adminWrite(reg, kind+".delete", func(ctx context.Context, call *rpc.Call) (any, error) {
		id, err := bindID(call)
		if err != nil {
			return nil, err
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, storeError(err)
		}
		return success, nil
	})
}

func (rt *Router) registerPoems(reg *rpc.Registry) {
	rt.publicRead(reg, "poems.getByPoetSlug", func(ctx context.Context, call *rpc.Call) (any, error) {
		slug, err := bindString(call, "poetSlug")
		if err != nil {
			return nil, err
		}
		res, err := content.PoemsByPoetSlug(ctx, rt.content, slug)
		if err != nil {
			return nil, storeError(err)
		}
		if res == nil {
			return nil, nil
		}
		return res, nil
	})

	rt.publicRead(reg, "poems.getDetailBySlug", func(ctx context.Context, call *rpc.Call) (any, error) {
		slug, err := bindString(call, "slug")
		if err != nil {
			return nil, err
		}
		res, err := content.PoemDetailBySlug(ctx, rt.content, slug)
		if err != nil {
			return nil, storeError(err)
		}
		if res == nil {
			return nil, nil
		}
		return res, nil
	})
}

func (rt *Router) registerEvents(reg *rpc.Registry) {
	events := rt.content.Store(content.KindEvents)
	// Not cached: the result depends on the clock, not only on writes.
	reg.Query("events.getUpcoming", rpc.TierPublic, func(ctx context.Context, _ *rpc.Call) (any, error) {
		records, err := events.Upcoming(ctx, rt.now())
		return records, storeError(err)
	})
}

func (rt *Router) registerHomepage(reg *rpc.Registry) {
	rt.publicRead(reg, "homepage.getLatestContent", func(ctx context.Context, call *rpc.Call) (any, error) {
		limit, err := bindLimit(call, content.MaxLatestLimit)
		if err != nil {
			return nil, err
		}
		items, err := content.LatestContent(ctx, rt.content, limit)
		return items, storeError(err)
	})
}
