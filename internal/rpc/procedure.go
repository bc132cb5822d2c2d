// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rpc implements named remote procedures: the capability gate in
// front of them, a registry, and the JSON-over-HTTP transport that carries
// single and batched calls.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/olegiv/heritage-archive/internal/model"
)

// Type distinguishes reads from writes. Mutations are only accepted over
// POST.
type Type int

// Procedure types.
const (
	Query Type = iota
	Mutation
)

func (t Type) String() string {
	if t == Mutation {
		return "mutation"
	}
	return "query"
}

// Call is one procedure invocation.
type Call struct {
	Method string
	Params json.RawMessage
	// Principal is the signed-in caller, nil for anonymous calls.
	Principal *model.User
	// Request is the HTTP request that carried the call. Calls of one
	// batch share it.
	Request *http.Request
}

// HasParams reports whether the call carried non-null params.
func (c *Call) HasParams() bool {
	p := bytes.TrimSpace(c.Params)
	return len(p) > 0 && !bytes.Equal(p, []byte("null"))
}

// Bind decodes the call params into v. Absent or null params leave v
// untouched. Type mismatches are reported against the offending field.
func (c *Call) Bind(v any) error {
	if !c.HasParams() {
		return nil
	}
	if err := json.Unmarshal(c.Params, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return BadField(typeErr.Field, fmt.Sprintf("must be %s", typeErr.Type.Kind()))
		}
		return BadRequest("Invalid input")
	}
	return nil
}

// Handler executes a procedure.
type Handler func(ctx context.Context, call *Call) (any, error)

// Procedure is a named, gated handler.
type Procedure struct {
	Name    string
	Tier    Tier
	Type    Type
	Handler Handler

	guarded Handler
}

// Registry holds the procedures exposed by a server.
type Registry struct {
	procs map[string]*Procedure
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]*Procedure)}
}

// Register adds p, wrapping its handler in the gate for its tier.
// It panics on duplicate names.
func (r *Registry) Register(p Procedure) {
	if p.Name == "" || p.Handler == nil {
		panic("rpc: procedure needs a name and a handler")
	}
	if _, exists := r.procs[p.Name]; exists {
		panic("rpc: duplicate procedure " + p.Name)
	}
	p.guarded = Guard(p.Tier, p.Handler)
	r.procs[p.Name] = &p
}

// Query registers a read procedure.
func (r *Registry) Query(name string, tier Tier, h Handler) {
	r.Register(Procedure{Name: name, Tier: tier, Type: Query, Handler: h})
}

// Mutation registers a write procedure.
func (r *Registry) Mutation(name string, tier Tier, h Handler) {
	r.Register(Procedure{Name: name, Tier: tier, Type: Mutation, Handler: h})
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (*Procedure, bool) {
	p, ok := r.procs[name]
	return p, ok
}

// List returns the registered procedure names in lexical order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named procedure behind its gate.
func (r *Registry) Invoke(ctx context.Context, call *Call) (any, error) {
	p, ok := r.Lookup(call.Method)
	if !ok {
		return nil, NotFound(fmt.Sprintf("No procedure found on path %q", call.Method))
	}
	return p.guarded(ctx, call)
}
