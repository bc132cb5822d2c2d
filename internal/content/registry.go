// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"log/slog"

	"github.com/olegiv/heritage-archive/internal/store"
)

// Registry holds one Store per content kind.
type Registry struct {
	stores map[string]*Store
	kinds  []string
}

// NewRegistry builds stores for every descriptor returned by Descriptors.
func NewRegistry(db store.DBTX, logger *slog.Logger) *Registry {
	descs := Descriptors()
	r := &Registry{
		stores: make(map[string]*Store, len(descs)),
		kinds:  make([]string, 0, len(descs)),
	}
	for _, d := range descs {
		r.stores[d.Kind] = NewStore(d, db, logger)
		r.kinds = append(r.kinds, d.Kind)
	}
	return r
}

// Kinds returns the content kinds in display order.
func (r *Registry) Kinds() []string {
	out := make([]string, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Lookup returns the store for kind.
func (r *Registry) Lookup(kind string) (*Store, bool) {
	s, ok := r.stores[kind]
	return s, ok
}

// Store returns the store for kind and panics for an unknown kind.
// It is meant for the fixed kinds referenced in code.
func (r *Registry) Store(kind string) *Store {
	s, ok := r.stores[kind]
	if !ok {
		panic("content: unknown kind " + kind)
	}
	return s
}

// Stores returns all stores in display order.
func (r *Registry) Stores() []*Store {
	out := make([]*Store, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, r.stores[k])
	}
	return out
}
