// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/heritage-archive/internal/cache"
	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/handler/api"
	"github.com/olegiv/heritage-archive/internal/middleware"
	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/rpc"
	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/testutil"
	"github.com/olegiv/heritage-archive/internal/transfer"
)

// countingTerminator records session terminations.
type countingTerminator struct {
	calls atomic.Int32
	err   error
}

func (c *countingTerminator) Destroy(context.Context) error {
	c.calls.Add(1)
	return c.err
}

type env struct {
	t        *testing.T
	db       *store.DB
	content  *content.Registry
	registry *rpc.Registry
	server   *rpc.Server
	sessions *countingTerminator
	admin    model.User
	user     model.User
}

type envOption func(*api.Deps)

func withLimiter(l *middleware.RateLimiter) envOption {
	return func(d *api.Deps) { d.SubmissionLimiter = l }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()
	reg := content.NewRegistry(db, logger)
	sessions := &countingTerminator{}

	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = backend.Close() })

	deps := api.Deps{
		DB:       db,
		Content:  reg,
		Exporter: transfer.NewExporter(reg, db, logger),
		Sessions: sessions,
		Cache:    cache.NewReadCache(backend, time.Minute, logger),
		Logger:   logger,
		Version:  "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	procs := rpc.NewRegistry()
	api.New(deps).Register(procs)

	return &env{
		t:        t,
		db:       db,
		content:  reg,
		registry: procs,
		server:   rpc.NewServer(procs, logger),
		sessions: sessions,
		admin:    testutil.CreateAdmin(t, db),
		user:     testutil.CreateUser(t, db, model.RoleUser),
	}
}

// call performs one RPC as principal (nil for anonymous).
func (e *env) call(principal *model.User, method string, params any) rpc.Response {
	e.t.Helper()

	req := rpc.Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(e.t, err)
		req.Params = raw
	}
	body, err := json.Marshal(req)
	require.NoError(e.t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/rpc", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if principal != nil {
		r = r.WithContext(middleware.WithUser(r.Context(), principal))
	}
	w := httptest.NewRecorder()
	e.server.HandlePost(w, r)

	var resp rpc.Response
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// ok performs a call that must succeed and decodes its result into out.
func (e *env) ok(principal *model.User, method string, params, out any) {
	e.t.Helper()
	resp := e.call(principal, method, params)
	require.Nil(e.t, resp.Error, "%s failed: %+v", method, resp.Error)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(resp.Result, out))
	}
}

// fail performs a call that must fail and returns its error.
func (e *env) fail(principal *model.User, method string, params any) *rpc.Error {
	e.t.Helper()
	resp := e.call(principal, method, params)
	require.NotNil(e.t, resp.Error, "%s unexpectedly succeeded: %s", method, resp.Result)
	return resp.Error
}

// validFields returns a minimal valid create payload for kind.
func (e *env) validFields(kind, slug string) map[string]any {
	d, ok := e.content.Lookup(kind)
	require.True(e.t, ok, kind)
	en, ar := d.Descriptor().TitleNames()
	fields := map[string]any{
		"slug": slug,
		en:     fmt.Sprintf("%s %s", kind, slug),
		ar:     "عنوان " + slug,
	}
	for _, f := range d.Descriptor().Fields {
		if !f.Required {
			continue
		}
		switch f.Type {
		case content.Time:
			fields[f.Name] = time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
		default:
			fields[f.Name] = "https://example.com/" + slug
		}
	}
	return fields
}

func with(fields map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+len(extra))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

type record map[string]any

func (r record) id() int64 {
	n, _ := r["id"].(float64)
	return int64(n)
}

func idsOf(records []record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.id()
	}
	return out
}

var errSessionStore = errors.New("session store unavailable")
