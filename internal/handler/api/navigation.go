// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/rpc"
	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/util"
)

const (
	maxNavigationLabel = 100
	maxNavigationURL   = 2048
)

type createNavigationInput struct {
	LabelEn       string  `json:"labelEn"`
	LabelAr       string  `json:"labelAr"`
	URL           string  `json:"url"`
	ParentID      *int64  `json:"parentId"`
	SortOrder     int64   `json:"sortOrder"`
	IsActive      *bool   `json:"isActive"`
	FeaturedImage *string `json:"featuredImage"`
}

func (rt *Router) registerNavigation(reg *rpc.Registry) {
	rt.publicRead(reg, "navigation.getActive", func(ctx context.Context, call *rpc.Call) (any, error) {
		items, err := rt.queries.ListActiveNavigationItems(ctx)
		if err != nil {
			return nil, rpc.Internal(err)
		}
		if wantsTree(call) {
			return model.BuildNavigationTree(items), nil
		}
		return items, nil
	})

	reg.Query("navigation.getAll", rpc.TierAdmin, func(ctx context.Context, _ *rpc.Call) (any, error) {
		items, err := rt.queries.ListNavigationItems(ctx)
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return items, nil
	})

	rt.adminWrite(reg, "navigation.create", func(ctx context.Context, call *rpc.Call) (any, error) {
		var in createNavigationInput
		if err := call.Bind(&in); err != nil {
			return nil, err
		}
		params, err := in.validate()
		if err != nil {
			return nil, err
		}
		now := rt.now()
		params.CreatedAt = now
		params.UpdatedAt = now
		item, err := rt.queries.CreateNavigationItem(ctx, params)
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return item, nil
	})

	rt.adminWrite(reg, "navigation.update", func(ctx context.Context, call *rpc.Call) (any, error) {
		in, err := bindInput(call)
		if err != nil {
			return nil, err
		}
		id, err := takeID(in)
		if err != nil {
			return nil, err
		}
		patch, err := navigationPatch(id, in)
		if err != nil {
			return nil, err
		}
		item, err := rt.queries.UpdateNavigationItem(ctx, id, patch, rt.now())
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return item, nil
	})

	rt.adminWrite(reg, "navigation.delete", func(ctx context.Context, call *rpc.Call) (any, error) {
		id, err := bindID(call)
		if err != nil {
			return nil, err
		}
		if err := rt.queries.DeleteNavigationItem(ctx, id); err != nil {
			return nil, rpc.Internal(err)
		}
		return success, nil
	})
}

func wantsTree(call *rpc.Call) bool {
	var in struct {
		Tree bool `json:"tree"`
	}
	return call.Bind(&in) == nil && in.Tree
}

func (in createNavigationInput) validate() (store.CreateNavigationItemParams, error) {
	var p store.CreateNavigationItemParams
	var err error
	if p.LabelEn, err = navigationLabel(in.LabelEn, "labelEn"); err != nil {
		return p, err
	}
	if p.LabelAr, err = navigationLabel(in.LabelAr, "labelAr"); err != nil {
		return p, err
	}
	if p.URL, err = navigationURL(in.URL); err != nil {
		return p, err
	}
	if in.ParentID != nil && *in.ParentID <= 0 {
		return p, rpc.BadField("parentId", "must be a positive integer")
	}
	p.ParentID = in.ParentID
	p.SortOrder = in.SortOrder
	p.IsActive = in.IsActive == nil || *in.IsActive
	if p.FeaturedImage, err = optionalText(in.FeaturedImage, "featuredImage", maxNavigationURL); err != nil {
		return p, err
	}
	return p, nil
}

// navigationPatch validates the fields present in a navigation update.
// Unknown fields are ignored.
func navigationPatch(id int64, in map[string]json.RawMessage) ([]store.Assignment, error) {
	var patch []store.Assignment
	for _, name := range []string{"labelEn", "labelAr", "url", "parentId", "sortOrder", "isActive", "featuredImage"} {
		raw, ok := in[name]
		if !ok {
			continue
		}
		isNull := string(raw) == "null"
		switch name {
		case "labelEn", "labelAr", "url":
			var s string
			if isNull || json.Unmarshal(raw, &s) != nil {
				return nil, rpc.BadField(name, "must be a string")
			}
			var v string
			var err error
			if name == "url" {
				v, err = navigationURL(s)
			} else {
				v, err = navigationLabel(s, name)
			}
			if err != nil {
				return nil, err
			}
			patch = append(patch, store.Assignment{Column: snake(name), Value: v})
		case "parentId":
			if isNull {
				patch = append(patch, store.Assignment{Column: "parent_id", Value: nil})
				continue
			}
			var parent int64
			if json.Unmarshal(raw, &parent) != nil || parent <= 0 {
				return nil, rpc.BadField(name, "must be a positive integer")
			}
			if parent == id {
				return nil, rpc.BadField(name, "cannot reference the item itself")
			}
			patch = append(patch, store.Assignment{Column: "parent_id", Value: parent})
		case "sortOrder":
			var n int64
			if isNull || json.Unmarshal(raw, &n) != nil {
				return nil, rpc.BadField(name, "must be an integer")
			}
			patch = append(patch, store.Assignment{Column: "sort_order", Value: n})
		case "isActive":
			var b bool
			if isNull || json.Unmarshal(raw, &b) != nil {
				return nil, rpc.BadField(name, "must be a boolean")
			}
			patch = append(patch, store.Assignment{Column: "is_active", Value: b})
		case "featuredImage":
			var s *string
			if json.Unmarshal(raw, &s) != nil {
				return nil, rpc.BadField(name, "must be a string")
			}
			v, err := optionalText(s, name, maxNavigationURL)
			if err != nil {
				return nil, err
			}
			var value any
			if v != nil {
				value = *v
			}
			patch = append(patch, store.Assignment{Column: "featured_image", Value: value})
		}
	}
	return patch, nil
}

func snake(name string) string {
	switch name {
	case "labelEn":
		return "label_en"
	case "labelAr":
		return "label_ar"
	default:
		return name
	}
}

func navigationLabel(s, field string) (string, error) {
	s = util.NormalizeText(s)
	switch {
	case s == "":
		return "", rpc.BadField(field, "is required")
	case utf8.RuneCountInString(s) > maxNavigationLabel:
		return "", rpc.BadField(field, "is too long")
	}
	return s, nil
}

// navigationURL accepts site-relative paths and http(s) links.
func navigationURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", rpc.BadField("url", "is required")
	case len(s) > maxNavigationURL:
		return "", rpc.BadField("url", "is too long")
	case strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"),
		strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"):
		return s, nil
	default:
		return "", rpc.BadField("url", "must be a site path or an http(s) link")
	}
}
