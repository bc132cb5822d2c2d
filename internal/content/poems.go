// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"

	"github.com/olegiv/heritage-archive/internal/model"
)

// MaxSiblingPoems caps the "more by this poet" list of a poem detail.
const MaxSiblingPoems = 10

// PoetPoems is a poet together with their published poems.
type PoetPoems struct {
	Poet  Record   `json:"poet"`
	Poems []Record `json:"poems"`
}

// PoemDetail is a poem with its poet and other poems by the same poet.
type PoemDetail struct {
	Poem     Record   `json:"poem"`
	Poet     Record   `json:"poet"`
	Siblings []Record `json:"siblings"`
}

// PoemsByPoetSlug resolves a published poet by slug and lists their
// published poems. It returns nil when the poet is absent or unpublished.
func PoemsByPoetSlug(ctx context.Context, reg *Registry, poetSlug string) (*PoetPoems, error) {
	poet, err := reg.Store(KindPoets).GetBySlug(ctx, poetSlug, false)
	if err != nil || poet == nil {
		return nil, err
	}

	poems, err := reg.Store(KindPoems).PublishedWhere(ctx, "poetId", poet.ID())
	if err != nil {
		return nil, err
	}
	return &PoetPoems{Poet: poet, Poems: poems}, nil
}

// PoemDetailBySlug resolves a published poem by slug with its poet and up to
// MaxSiblingPoems other published poems by that poet. It returns nil when
// the poem is absent or unpublished. Poet is nil when the poem has no
// published poet.
func PoemDetailBySlug(ctx context.Context, reg *Registry, slug string) (*PoemDetail, error) {
	poems := reg.Store(KindPoems)
	poem, err := poems.GetBySlug(ctx, slug, false)
	if err != nil || poem == nil {
		return nil, err
	}

	detail := &PoemDetail{Poem: poem, Siblings: []Record{}}
	poetID, ok := poem.Int("poetId")
	if !ok {
		return detail, nil
	}

	poet, err := reg.Store(KindPoets).GetByID(ctx, poetID)
	if err != nil {
		return nil, err
	}
	if poet != nil && poet.Status() == model.StatusPublished {
		detail.Poet = poet
	}

	all, err := poems.PublishedWhere(ctx, "poetId", poetID)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID() == poem.ID() {
			continue
		}
		detail.Siblings = append(detail.Siblings, p)
		if len(detail.Siblings) == MaxSiblingPoems {
			break
		}
	}
	return detail, nil
}
