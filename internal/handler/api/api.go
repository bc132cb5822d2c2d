// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api registers the remote procedures of the heritage archive on
// an rpc.Registry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/heritage-archive/internal/cache"
	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/middleware"
	"github.com/olegiv/heritage-archive/internal/rpc"
	"github.com/olegiv/heritage-archive/internal/session"
	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/transfer"
)

// Deps holds the collaborators of the procedures.
type Deps struct {
	DB       *store.DB
	Content  *content.Registry
	Exporter *transfer.Exporter
	// Sessions ends the caller's session on auth.logout.
	Sessions session.Terminator
	// Cache serves anonymous reads. Optional.
	Cache *cache.ReadCache
	// SubmissionLimiter throttles anonymous submissions per client. Optional.
	SubmissionLimiter *middleware.RateLimiter
	Logger            *slog.Logger
	Version           string
}

// Router implements the procedures.
type Router struct {
	db       *store.DB
	queries  *store.Queries
	content  *content.Registry
	exporter *transfer.Exporter
	sessions session.Terminator
	cache    *cache.ReadCache
	limiter  *middleware.RateLimiter
	logger   *slog.Logger
	version  string
	started  time.Time
	now      func() time.Time
}

// New creates a Router.
func New(d Deps) *Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		db:       d.DB,
		queries:  store.New(d.DB),
		content:  d.Content,
		exporter: d.Exporter,
		sessions: d.Sessions,
		cache:    d.Cache,
		limiter:  d.SubmissionLimiter,
		logger:   logger,
		version:  d.Version,
		started:  time.Now(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register adds every procedure to reg.
func (rt *Router) Register(reg *rpc.Registry) {
	for _, kind := range rt.content.Kinds() {
		rt.registerKind(reg, rt.content.Store(kind))
	}
	rt.registerPoems(reg)
	rt.registerEvents(reg)
	rt.registerAuth(reg)
	rt.registerSubmissions(reg)
	rt.registerNavigation(reg)
	rt.registerHomepage(reg)
	rt.registerExport(reg)
	rt.registerSystem(reg)
}

// publicRead registers a public query whose results are cached for
// callers that are not admins.
func (rt *Router) publicRead(reg *rpc.Registry, name string, h rpc.Handler) {
	reg.Query(name, rpc.TierPublic, rt.cached(name, h))
}

// adminWrite registers an admin mutation that invalidates cached reads
// when it succeeds.
func (rt *Router) adminWrite(reg *rpc.Registry, name string, h rpc.Handler) {
	reg.Mutation(name, rpc.TierAdmin, rt.invalidating(h))
}

func (rt *Router) cached(name string, h rpc.Handler) rpc.Handler {
	if rt.cache == nil {
		return h
	}
	return func(ctx context.Context, call *rpc.Call) (any, error) {
		if call.Principal.IsAdmin() {
			return h(ctx, call)
		}
		raw, err := rt.cache.Remember(ctx, cache.Key(name, compactParams(call.Params)), func(ctx context.Context) (any, error) {
			return h(ctx, call)
		})
		if err != nil {
			return nil, err
		}
		return raw, nil
	}
}

func (rt *Router) invalidating(h rpc.Handler) rpc.Handler {
	return func(ctx context.Context, call *rpc.Call) (any, error) {
		result, err := h(ctx, call)
		if err == nil && rt.cache != nil {
			rt.cache.Clear(ctx)
		}
		return result, err
	}
}

// compactParams normalizes whitespace so equal inputs share a cache key.
func compactParams(params json.RawMessage) []byte {
	if len(params) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, params); err != nil {
		return params
	}
	if buf.String() == "null" {
		return nil
	}
	return buf.Bytes()
}

// storeError converts workflow store failures into procedure errors.
func storeError(err error) error {
	var verr *content.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return rpc.BadField(verr.Field, verr.Message)
	case errors.Is(err, content.ErrDuplicateSlug):
		return rpc.BadField(content.FieldSlug, "is already used by another record")
	default:
		return rpc.Internal(err)
	}
}

// bindInput decodes the params of a call as a field map. Absent params
// yield an empty map.
func bindInput(call *rpc.Call) (content.Input, error) {
	in := content.Input{}
	if !call.HasParams() {
		return in, nil
	}
	if err := json.Unmarshal(call.Params, &in); err != nil {
		return nil, rpc.BadRequest("Input must be an object")
	}
	return in, nil
}

// takeID removes and returns the required positive "id" of in.
func takeID(in content.Input) (int64, error) {
	raw, ok := in["id"]
	if !ok || string(raw) == "null" {
		return 0, rpc.BadField("id", "is required")
	}
	delete(in, "id")
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil || id <= 0 {
		return 0, rpc.BadField("id", "must be a positive integer")
	}
	return id, nil
}

type idInput struct {
	ID *int64 `json:"id"`
}

func bindID(call *rpc.Call) (int64, error) {
	var in idInput
	if err := call.Bind(&in); err != nil {
		return 0, err
	}
	if in.ID == nil {
		return 0, rpc.BadField("id", "is required")
	}
	if *in.ID <= 0 {
		return 0, rpc.BadField("id", "must be a positive integer")
	}
	return *in.ID, nil
}

// bindString reads the required, non-blank string field of the params.
func bindString(call *rpc.Call, field string) (string, error) {
	in, err := bindInput(call)
	if err != nil {
		return "", err
	}
	var s string
	if raw, ok := in[field]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", rpc.BadField(field, "must be a string")
		}
	}
	if s = strings.TrimSpace(s); s == "" {
		return "", rpc.BadField(field, "is required")
	}
	return s, nil
}

type limitInput struct {
	Limit *int `json:"limit"`
}

// bindLimit reads an optional limit between 1 and upper.
func bindLimit(call *rpc.Call, upper int) (int, error) {
	var in limitInput
	if err := call.Bind(&in); err != nil {
		return 0, err
	}
	if in.Limit == nil {
		return 0, nil
	}
	if *in.Limit < 1 || *in.Limit > upper {
		return 0, rpc.BadField("limit", "must be between 1 and "+strconv.Itoa(upper))
	}
	return *in.Limit, nil
}

// Success is the acknowledgment returned by deletions and logout.
type Success struct {
	Success bool `json:"success"`
}

var success = Success{Success: true}
