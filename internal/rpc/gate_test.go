// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/heritage-archive/internal/model"
)

func TestGuard(t *testing.T) {
	user := &model.User{ID: 1, Role: model.RoleUser}
	admin := &model.User{ID: 2, Role: model.RoleAdmin}

	tests := []struct {
		name      string
		tier      Tier
		principal *model.User
		wantCode  Code
	}{
		{"public anonymous", TierPublic, nil, ""},
		{"public user", TierPublic, user, ""},
		{"authenticated anonymous", TierAuthenticated, nil, CodeUnauthenticated},
		{"authenticated user", TierAuthenticated, user, ""},
		{"admin anonymous", TierAdmin, nil, CodeUnauthenticated},
		{"admin user", TierAdmin, user, CodeForbidden},
		{"admin admin", TierAdmin, admin, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			h := Guard(tt.tier, func(context.Context, *Call) (any, error) {
				ran = true
				return "ok", nil
			})

			got, err := h(context.Background(), &Call{Principal: tt.principal})
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "ok", got)
				assert.True(t, ran)
				return
			}

			var rerr *Error
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.wantCode, rerr.Code)
			assert.False(t, ran, "handler must not run when the gate rejects")
		})
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "public", TierPublic.String())
	assert.Equal(t, "authenticated", TierAuthenticated.String())
	assert.Equal(t, "admin", TierAdmin.String())
	assert.Equal(t, "Tier(9)", Tier(9).String())
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	typed := BadField("slug", "is required")
	assert.Same(t, typed, AsError(typed))

	cause := errors.New("disk I/O error")
	rerr := AsError(cause)
	assert.Equal(t, CodeInternal, rerr.Code)
	assert.Equal(t, InternalMessage, rerr.Message)
	assert.ErrorIs(t, rerr, cause)
	assert.NotContains(t, rerr.Message, "disk")
}

func TestCodeHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, CodeBadRequest.HTTPStatus())
	assert.Equal(t, 401, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, 403, CodeForbidden.HTTPStatus())
	assert.Equal(t, 404, CodeNotFound.HTTPStatus())
	assert.Equal(t, 429, CodeTooManyRequests.HTTPStatus())
	assert.Equal(t, 500, CodeInternal.HTTPStatus())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Query("b.list", TierPublic, func(context.Context, *Call) (any, error) { return 1, nil })
	reg.Mutation("a.create", TierAdmin, func(context.Context, *Call) (any, error) { return 2, nil })

	assert.Equal(t, []string{"a.create", "b.list"}, reg.List())

	p, ok := reg.Lookup("a.create")
	require.True(t, ok)
	assert.Equal(t, Mutation, p.Type)
	assert.Equal(t, TierAdmin, p.Tier)

	assert.Panics(t, func() {
		reg.Query("b.list", TierPublic, func(context.Context, *Call) (any, error) { return nil, nil })
	})

	_, err := reg.Invoke(context.Background(), &Call{Method: "missing"})
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, CodeNotFound, rerr.Code)

	_, err = reg.Invoke(context.Background(), &Call{Method: "a.create"})
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, CodeUnauthenticated, rerr.Code)
}

func TestCallBind(t *testing.T) {
	type params struct {
		ID   int64  `json:"id"`
		Slug string `json:"slug"`
	}

	var p params
	require.NoError(t, (&Call{}).Bind(&p))
	require.NoError(t, (&Call{Params: []byte("null")}).Bind(&p))
	assert.Zero(t, p)

	require.NoError(t, (&Call{Params: []byte(`{"id":7,"slug":"x"}`)}).Bind(&p))
	assert.Equal(t, params{ID: 7, Slug: "x"}, p)

	err := (&Call{Params: []byte(`{"id":"7"}`)}).Bind(&p)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, CodeBadRequest, rerr.Code)
	assert.Equal(t, "id", rerr.Field)

	err = (&Call{Params: []byte(`[1,2]`)}).Bind(&p)
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, CodeBadRequest, rerr.Code)
}
