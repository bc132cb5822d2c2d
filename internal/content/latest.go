// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Latest-content limits.
const (
	DefaultLatestLimit = 10
	MaxLatestLimit     = 50
)

// LatestItem is a homepage entry drawn from any content kind.
type LatestItem struct {
	Kind        string     `json:"kind"`
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	TitleEn     *string    `json:"titleEn"`
	TitleAr     *string    `json:"titleAr"`
	ImageURL    *string    `json:"imageUrl"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// LatestContent merges the newest published records of every kind marked
// Latest, sorts them by publication time (newest first) and truncates the
// result to limit.
func LatestContent(ctx context.Context, reg *Registry, limit int) ([]LatestItem, error) {
	switch {
	case limit <= 0:
		limit = DefaultLatestLimit
	case limit > MaxLatestLimit:
		limit = MaxLatestLimit
	}

	var stores []*Store
	for _, s := range reg.Stores() {
		if s.desc.Latest {
			stores = append(stores, s)
		}
	}

	results := make([][]Record, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range stores {
		g.Go(func() error {
			records, err := s.Latest(gctx, limit)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := []LatestItem{}
	for i, s := range stores {
		for _, rec := range results[i] {
			items = append(items, toLatestItem(s.desc, rec))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func toLatestItem(d *Descriptor, rec Record) LatestItem {
	en, ar := d.TitleNames()
	return LatestItem{
		Kind:        d.Kind,
		ID:          rec.ID(),
		Slug:        rec.Slug(),
		TitleEn:     optional(rec.String(en)),
		TitleAr:     optional(rec.String(ar)),
		ImageURL:    optional(thumbnail(d, rec)),
		PublishedAt: rec.PublishedAt(),
	}
}

func thumbnail(d *Descriptor, rec Record) string {
	switch v := rec[d.ImageField].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
