// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/middleware"
	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/rpc"
)

var genericOps = []struct {
	op   string
	tier rpc.Tier
	typ  rpc.Type
}{
	{"getPublished", rpc.TierPublic, rpc.Query},
	{"getFeatured", rpc.TierPublic, rpc.Query},
	{"getBySlug", rpc.TierPublic, rpc.Query},
	{"getAll", rpc.TierAdmin, rpc.Query},
	{"create", rpc.TierAdmin, rpc.Mutation},
	{"update", rpc.TierAdmin, rpc.Mutation},
	{"delete", rpc.TierAdmin, rpc.Mutation},
}

func TestRegisteredProcedures(t *testing.T) {
	e := newEnv(t)

	for _, kind := range e.content.Kinds() {
		for _, g := range genericOps {
			p, ok := e.registry.Lookup(kind + "." + g.op)
			require.True(t, ok, "%s.%s", kind, g.op)
			assert.Equal(t, g.tier, p.Tier, p.Name)
			assert.Equal(t, g.typ, p.Type, p.Name)
		}
	}

	special := map[string]rpc.Tier{
		"auth.me":                   rpc.TierPublic,
		"auth.logout":               rpc.TierPublic,
		"events.getUpcoming":        rpc.TierPublic,
		"poems.getByPoetSlug":       rpc.TierPublic,
		"poems.getDetailBySlug":     rpc.TierPublic,
		"homepage.getLatestContent": rpc.TierPublic,
		"submissions.create":        rpc.TierPublic,
		"submissions.getAll":        rpc.TierAdmin,
		"submissions.updateStatus":  rpc.TierAdmin,
		"submissions.delete":        rpc.TierAdmin,
		"navigation.getActive":      rpc.TierPublic,
		"navigation.getAll":         rpc.TierAdmin,
		"navigation.create":         rpc.TierAdmin,
		"navigation.update":         rpc.TierAdmin,
		"navigation.delete":         rpc.TierAdmin,
		"export.exportDatabase":     rpc.TierAdmin,
		"export.getExportStats":     rpc.TierAdmin,
		"export.exportContentType":  rpc.TierAdmin,
		"system.health":             rpc.TierPublic,
	}
	for name, tier := range special {
		p, ok := e.registry.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, tier, p.Tier, name)
	}

	assert.Len(t, e.registry.List(), len(e.content.Kinds())*len(genericOps)+len(special))
}

func TestAdminOperationsRejectOthers(t *testing.T) {
	e := newEnv(t)

	for _, kind := range e.content.Kinds() {
		for _, g := range genericOps {
			if g.tier != rpc.TierAdmin {
				continue
			}
			name := kind + "." + g.op
			params := map[string]any{"id": 1}

			err := e.fail(nil, name, params)
			assert.Equal(t, rpc.CodeUnauthenticated, err.Code, name)

			err = e.fail(&e.user, name, params)
			assert.Equal(t, rpc.CodeForbidden, err.Code, name)
		}
	}
}

func TestUserCreateDoesNotInsert(t *testing.T) {
	e := newEnv(t)

	var before []record
	e.ok(&e.admin, "archives.getAll", nil, &before)

	err := e.fail(&e.user, "archives.create", e.validFields(content.KindArchives, "letter-1"))
	assert.Equal(t, rpc.CodeForbidden, err.Code)

	var after []record
	e.ok(&e.admin, "archives.getAll", nil, &after)
	assert.Len(t, after, len(before))

	n, cerr := e.content.Store(content.KindArchives).Count(t.Context())
	require.NoError(t, cerr)
	assert.Zero(t, n)
}

func TestAuthMe(t *testing.T) {
	e := newEnv(t)

	resp := e.call(nil, "auth.me", nil)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "null", string(resp.Result))

	var me model.User
	e.ok(&e.user, "auth.me", nil, &me)
	assert.Equal(t, e.user.ID, me.ID)
	assert.Equal(t, model.RoleUser, me.Role)
}

func TestLogout(t *testing.T) {
	e := newEnv(t)

	var res map[string]bool
	e.ok(&e.user, "auth.logout", nil, &res)
	assert.Equal(t, map[string]bool{"success": true}, res)
	assert.EqualValues(t, 1, e.sessions.calls.Load())

	e.sessions.err = errSessionStore
	err := e.fail(&e.user, "auth.logout", nil)
	assert.Equal(t, rpc.CodeInternal, err.Code)
	assert.Equal(t, rpc.InternalMessage, err.Message)
	assert.EqualValues(t, 2, e.sessions.calls.Load())

	p, ok := e.registry.Lookup("auth.logout")
	require.True(t, ok)
	assert.Equal(t, rpc.Mutation, p.Type)
}

func TestCreateDefaults(t *testing.T) {
	e := newEnv(t)

	for _, kind := range e.content.Kinds() {
		var rec record
		e.ok(&e.admin, kind+".create", e.validFields(kind, kind+"-defaults"), &rec)
		assert.Equal(t, model.StatusDraft, rec["status"], kind)
		assert.Nil(t, rec["publishedAt"], kind)
		assert.EqualValues(t, e.admin.ID, rec["authorId"], kind)
	}
}

func TestPublishWorkflow(t *testing.T) {
	e := newEnv(t)
	start := time.Now().UTC().Add(-time.Second)

	var created record
	e.ok(&e.admin, "archives.create", with(e.validFields(content.KindArchives, "souq-letter"), map[string]any{"status": "draft"}), &created)

	var published []record
	e.ok(nil, "archives.getPublished", nil, &published)
	assert.NotContains(t, idsOf(published), created.id())

	var updated record
	e.ok(&e.admin, "archives.update", map[string]any{"id": created.id(), "status": "published"}, &updated)
	assert.Equal(t, model.StatusPublished, updated["status"])
	require.NotNil(t, updated["publishedAt"])
	stamp, err := time.Parse(time.RFC3339Nano, updated["publishedAt"].(string))
	require.NoError(t, err)
	assert.False(t, stamp.Before(start))

	e.ok(nil, "archives.getPublished", nil, &published)
	assert.Contains(t, idsOf(published), created.id())

	// Moving back to draft keeps the first publication stamp.
	var drafted record
	e.ok(&e.admin, "archives.update", map[string]any{"id": created.id(), "status": "review"}, &drafted)
	assert.Equal(t, updated["publishedAt"], drafted["publishedAt"])

	e.ok(nil, "archives.getPublished", nil, &published)
	assert.NotContains(t, idsOf(published), created.id())
}

func TestFeaturedToggle(t *testing.T) {
	e := newEnv(t)

	var rec record
	e.ok(&e.admin, "photos.create", with(e.validFields(content.KindPhotos, "old-port"), map[string]any{"status": "published"}), &rec)

	var featured []record
	e.ok(nil, "photos.getFeatured", nil, &featured)
	assert.NotContains(t, idsOf(featured), rec.id())

	e.ok(&e.admin, "photos.update", map[string]any{"id": rec.id(), "isFeatured": true}, nil)

	e.ok(nil, "photos.getFeatured", map[string]any{"limit": 3}, &featured)
	assert.Contains(t, idsOf(featured), rec.id())

	err := e.fail(nil, "photos.getFeatured", map[string]any{"limit": 0})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "limit", err.Field)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)

	var rec record
	e.ok(&e.admin, "books.create", e.validFields(content.KindBooks, "diwan"), &rec)

	var res map[string]bool
	e.ok(&e.admin, "books.delete", map[string]any{"id": rec.id()}, &res)
	assert.True(t, res["success"])

	var all []record
	e.ok(&e.admin, "books.getAll", nil, &all)
	assert.NotContains(t, idsOf(all), rec.id())

	err := e.fail(&e.admin, "books.delete", map[string]any{"id": rec.id()})
	assert.Equal(t, rpc.CodeInternal, err.Code)
}

func TestDuplicateSlug(t *testing.T) {
	e := newEnv(t)

	var first record
	e.ok(&e.admin, "poets.create", e.validFields(content.KindPoets, "al-mutanabbi"), &first)

	err := e.fail(&e.admin, "poets.create", e.validFields(content.KindPoets, "al-mutanabbi"))
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "slug", err.Field)

	var got record
	e.ok(&e.admin, "poets.getBySlug", map[string]any{"slug": "al-mutanabbi"}, &got)
	assert.Equal(t, first, got)
}

func TestGetBySlug(t *testing.T) {
	e := newEnv(t)

	resp := e.call(nil, "heritage.getBySlug", map[string]any{"slug": "missing"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "null", string(resp.Result))

	var rec record
	e.ok(&e.admin, "heritage.create", with(e.validFields(content.KindHeritage, "sadu"), map[string]any{
		"titleEn": "Sadu weaving",
		"titleAr": "حياكة السدو",
	}), &rec)

	resp = e.call(nil, "heritage.getBySlug", map[string]any{"slug": "sadu"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "null", string(resp.Result), "drafts are hidden from anonymous callers")

	var got record
	e.ok(&e.admin, "heritage.getBySlug", map[string]any{"slug": "sadu"}, &got)
	assert.Equal(t, "Sadu weaving", got["titleEn"])
	assert.Equal(t, "حياكة السدو", got["titleAr"])

	err := e.fail(nil, "heritage.getBySlug", map[string]any{})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "slug", err.Field)
}

func TestValidationNamesField(t *testing.T) {
	e := newEnv(t)

	err := e.fail(&e.admin, "events.create", map[string]any{"titleEn": "Lecture"})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "startDate", err.Field)

	err = e.fail(&e.admin, "events.update", map[string]any{"status": "published"})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "id", err.Field)

	err = e.fail(&e.admin, "events.update", map[string]any{"id": "7"})
	assert.Equal(t, "id", err.Field)

	err = e.fail(&e.admin, "archives.delete", map[string]any{"id": -1})
	assert.Equal(t, "id", err.Field)

	err = e.fail(&e.admin, "archives.create", []int{1, 2})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)

	n, cerr := e.content.Store(content.KindEvents).Count(t.Context())
	require.NoError(t, cerr)
	assert.Zero(t, n)
}

func TestUpdateMissingRecord(t *testing.T) {
	e := newEnv(t)

	err := e.fail(&e.admin, "places.update", map[string]any{"id": 999, "nameEn": "Nowhere"})
	assert.Equal(t, rpc.CodeInternal, err.Code)
	assert.Equal(t, rpc.InternalMessage, err.Message)
}

func TestPublicReadsAreInvalidatedByMutations(t *testing.T) {
	e := newEnv(t)

	published := map[string]any{"status": "published"}
	e.ok(&e.admin, "reposts.create", with(e.validFields(content.KindReposts, "first"), published), nil)

	var list []record
	e.ok(nil, "reposts.getPublished", nil, &list)
	require.Len(t, list, 1)

	e.ok(&e.admin, "reposts.create", with(e.validFields(content.KindReposts, "second"), published), nil)

	e.ok(nil, "reposts.getPublished", nil, &list)
	assert.Len(t, list, 2)

	e.ok(&e.admin, "reposts.update", map[string]any{"id": list[0].id(), "status": "draft"}, nil)
	e.ok(nil, "reposts.getPublished", nil, &list)
	assert.Len(t, list, 1)
}

func TestFilters(t *testing.T) {
	e := newEnv(t)

	e.ok(&e.admin, "archives.create", with(e.validFields(content.KindArchives, "a-letter"), map[string]any{
		"status": "published", "documentType": "letter",
	}), nil)
	e.ok(&e.admin, "archives.create", with(e.validFields(content.KindArchives, "a-map"), map[string]any{
		"status": "published", "documentType": "map",
	}), nil)

	var list []record
	e.ok(nil, "archives.getPublished", map[string]any{"documentType": "map"}, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "a-map", list[0]["slug"])

	err := e.fail(nil, "archives.getPublished", map[string]any{"documentType": "spaceship"})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "documentType", err.Field)
}

func TestEventsUpcoming(t *testing.T) {
	e := newEnv(t)

	future := with(e.validFields(content.KindEvents, "festival"), map[string]any{"status": "published"})
	past := with(e.validFields(content.KindEvents, "old-lecture"), map[string]any{
		"status":    "published",
		"startDate": time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339),
	})
	e.ok(&e.admin, "events.create", future, nil)
	e.ok(&e.admin, "events.create", past, nil)

	var list []record
	e.ok(nil, "events.getUpcoming", nil, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "festival", list[0]["slug"])
}

func TestEventsUpcoming_DropsStartedEventsWithoutWrite(t *testing.T) {
	e := newEnv(t)

	e.ok(&e.admin, "events.create", with(e.validFields(content.KindEvents, "night-market"), map[string]any{
		"status": "published",
	}), nil)

	var list []record
	e.ok(nil, "events.getUpcoming", nil, &list)
	require.Len(t, list, 1)

	// The event starts without any mutation touching the read cache.
	_, err := e.db.ExecContext(t.Context(),
		"UPDATE events SET start_date = ? WHERE slug = ?", time.Now().Add(-time.Hour).UTC(), "night-market")
	require.NoError(t, err)

	e.ok(nil, "events.getUpcoming", nil, &list)
	assert.Empty(t, list)
}

func TestPoems(t *testing.T) {
	e := newEnv(t)
	published := map[string]any{"status": "published"}

	var poet record
	e.ok(&e.admin, "poets.create", with(e.validFields(content.KindPoets, "nabati-poet"), published), &poet)
	for _, slug := range []string{"qasida-one", "qasida-two"} {
		e.ok(&e.admin, "poems.create", with(e.validFields(content.KindPoems, slug), map[string]any{
			"status": "published", "poetId": poet.id(),
		}), nil)
	}

	var byPoet struct {
		Poet  record   `json:"poet"`
		Poems []record `json:"poems"`
	}
	e.ok(nil, "poems.getByPoetSlug", map[string]any{"poetSlug": "nabati-poet"}, &byPoet)
	assert.Equal(t, poet.id(), byPoet.Poet.id())
	assert.Len(t, byPoet.Poems, 2)

	var detail struct {
		Poem     record   `json:"poem"`
		Poet     record   `json:"poet"`
		Siblings []record `json:"siblings"`
	}
	e.ok(nil, "poems.getDetailBySlug", map[string]any{"slug": "qasida-one"}, &detail)
	assert.Equal(t, "qasida-one", detail.Poem["slug"])
	assert.Equal(t, poet.id(), detail.Poet.id())
	require.Len(t, detail.Siblings, 1)
	assert.Equal(t, "qasida-two", detail.Siblings[0]["slug"])

	resp := e.call(nil, "poems.getByPoetSlug", map[string]any{"poetSlug": "unknown"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "null", string(resp.Result))
}

func TestHomepageLatestContent(t *testing.T) {
	e := newEnv(t)
	published := map[string]any{"status": "published"}

	e.ok(&e.admin, "archives.create", with(e.validFields(content.KindArchives, "first"), published), nil)
	time.Sleep(5 * time.Millisecond)
	e.ok(&e.admin, "photos.create", with(e.validFields(content.KindPhotos, "second"), published), nil)
	e.ok(&e.admin, "archives.create", e.validFields(content.KindArchives, "draft-only"), nil)

	var items []struct {
		Kind string `json:"kind"`
		Slug string `json:"slug"`
	}
	e.ok(nil, "homepage.getLatestContent", map[string]any{"limit": 5}, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Slug)
	assert.Equal(t, content.KindPhotos, items[0].Kind)

	e.ok(nil, "homepage.getLatestContent", map[string]any{"limit": 1}, &items)
	assert.Len(t, items, 1)
}

func TestSubmissions(t *testing.T) {
	e := newEnv(t, withLimiter(middleware.NewRateLimiter(0.001, 2)))

	valid := map[string]any{
		"submitterName":     "Maryam",
		"submitterContact":  "maryam@example.com",
		"contentType":       "photo",
		"titleAr":           "صورة قديمة للسوق",
		"fileUrls":          []string{"/uploads/submissions/a.jpg"},
		"permissionGranted": true,
	}

	var sub model.Submission
	e.ok(nil, "submissions.create", valid, &sub)
	assert.Equal(t, model.StatusDraft, sub.Status)
	assert.Equal(t, []string{"/uploads/submissions/a.jpg"}, sub.FileURLs)

	err := e.fail(nil, "submissions.create", with(valid, map[string]any{"permissionGranted": false}))
	assert.Equal(t, "permissionGranted", err.Field)

	err = e.fail(nil, "submissions.create", valid)
	assert.Equal(t, rpc.CodeTooManyRequests, err.Code)

	var all []model.Submission
	e.ok(&e.admin, "submissions.getAll", nil, &all)
	require.Len(t, all, 1)

	var reviewed model.Submission
	e.ok(&e.admin, "submissions.updateStatus", map[string]any{
		"id": sub.ID, "status": "published", "reviewNotes": "Added to photos",
	}, &reviewed)
	assert.Equal(t, model.StatusPublished, reviewed.Status)
	require.NotNil(t, reviewed.ReviewNotes)
	assert.Equal(t, "Added to photos", *reviewed.ReviewNotes)
	assert.NotNil(t, reviewed.ReviewedAt)

	err = e.fail(&e.admin, "submissions.updateStatus", map[string]any{"id": sub.ID, "status": "archived"})
	assert.Equal(t, "status", err.Field)

	err = e.fail(&e.user, "submissions.getAll", nil)
	assert.Equal(t, rpc.CodeForbidden, err.Code)

	e.ok(&e.admin, "submissions.delete", map[string]any{"id": sub.ID}, nil)
	e.ok(&e.admin, "submissions.getAll", nil, &all)
	assert.Empty(t, all)
}

func TestSubmissionValidation(t *testing.T) {
	e := newEnv(t)

	base := map[string]any{
		"submitterName":     "Ali",
		"submitterContact":  "+971 50 000 0000",
		"contentType":       "story",
		"titleEn":           "Pearl diving",
		"permissionGranted": true,
	}

	tests := []struct {
		name  string
		patch map[string]any
		field string
	}{
		{"missing name", map[string]any{"submitterName": "  "}, "submitterName"},
		{"missing contact", map[string]any{"submitterContact": ""}, "submitterContact"},
		{"bad type", map[string]any{"contentType": "video-game"}, "contentType"},
		{"bad file url", map[string]any{"fileUrls": []string{"javascript:alert(1)"}}, "fileUrls"},
		{"wrong type", map[string]any{"permissionGranted": "yes"}, "permissionGranted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.fail(nil, "submissions.create", with(base, tt.patch))
			assert.Equal(t, rpc.CodeBadRequest, err.Code)
			assert.Equal(t, tt.field, err.Field)
		})
	}
}

func TestSubmissionOptionalFields(t *testing.T) {
	e := newEnv(t)

	var untitled model.Submission
	e.ok(nil, "submissions.create", map[string]any{
		"submitterName":     "Mariam",
		"submitterContact":  "mariam@example.com",
		"contentType":       "photo",
		"permissionGranted": true,
	}, &untitled)
	assert.Nil(t, untitled.TitleEn)
	assert.Nil(t, untitled.TitleAr)
	assert.True(t, untitled.PermissionGranted)

	var withheld model.Submission
	e.ok(nil, "submissions.create", map[string]any{
		"submitterName":     "Mariam",
		"submitterContact":  "mariam@example.com",
		"contentType":       "photo",
		"titleEn":           "Family photo, 1960",
		"permissionGranted": false,
	}, &withheld)
	assert.False(t, withheld.PermissionGranted)

	var all []model.Submission
	e.ok(&e.admin, "submissions.getAll", nil, &all)
	require.Len(t, all, 2)
}

func TestNavigation(t *testing.T) {
	e := newEnv(t)

	var parent model.NavigationItem
	e.ok(&e.admin, "navigation.create", map[string]any{
		"labelEn": "Archive", "labelAr": "الأرشيف", "url": "/archives", "sortOrder": 1,
	}, &parent)
	assert.True(t, parent.IsActive)

	var child model.NavigationItem
	e.ok(&e.admin, "navigation.create", map[string]any{
		"labelEn": "Letters", "labelAr": "الرسائل", "url": "/archives?type=letter", "parentId": parent.ID,
	}, &child)

	var hidden model.NavigationItem
	e.ok(&e.admin, "navigation.create", map[string]any{
		"labelEn": "Hidden", "labelAr": "مخفي", "url": "/hidden", "isActive": false,
	}, &hidden)

	var active []model.NavigationItem
	e.ok(nil, "navigation.getActive", nil, &active)
	assert.Len(t, active, 2)

	var tree []model.NavigationNode
	e.ok(nil, "navigation.getActive", map[string]any{"tree": true}, &tree)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, child.ID, tree[0].Children[0].ID)

	var updated model.NavigationItem
	e.ok(&e.admin, "navigation.update", map[string]any{"id": hidden.ID, "isActive": true, "labelEn": "Shown"}, &updated)
	assert.True(t, updated.IsActive)
	assert.Equal(t, "Shown", updated.LabelEn)
	assert.Equal(t, "مخفي", updated.LabelAr)

	e.ok(nil, "navigation.getActive", nil, &active)
	assert.Len(t, active, 3)

	err := e.fail(&e.admin, "navigation.update", map[string]any{"id": hidden.ID, "parentId": hidden.ID})
	assert.Equal(t, "parentId", err.Field)

	err = e.fail(&e.admin, "navigation.create", map[string]any{"labelEn": "X", "labelAr": "س", "url": "javascript:void(0)"})
	assert.Equal(t, "url", err.Field)

	var all []model.NavigationItem
	e.ok(&e.admin, "navigation.getAll", nil, &all)
	assert.Len(t, all, 3)

	e.ok(&e.admin, "navigation.delete", map[string]any{"id": hidden.ID}, nil)
	e.ok(&e.admin, "navigation.getAll", nil, &all)
	assert.Len(t, all, 2)
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.ok(&e.admin, "places.create", e.validFields(content.KindPlaces, "old-town"), nil)

	var stats struct {
		Counts map[string]int64 `json:"counts"`
		Total  int64            `json:"total"`
	}
	e.ok(&e.admin, "export.getExportStats", nil, &stats)
	assert.EqualValues(t, 1, stats.Counts[content.KindPlaces])

	var kindExport struct {
		Kind  string   `json:"kind"`
		Items []record `json:"items"`
	}
	e.ok(&e.admin, "export.exportContentType", map[string]any{"type": content.KindPlaces}, &kindExport)
	assert.Equal(t, content.KindPlaces, kindExport.Kind)
	assert.Len(t, kindExport.Items, 1)

	err := e.fail(&e.admin, "export.exportContentType", map[string]any{"type": "spaceships"})
	assert.Equal(t, rpc.CodeBadRequest, err.Code)
	assert.Equal(t, "type", err.Field)

	var snap struct {
		Version string         `json:"version"`
		Tables  map[string]any `json:"tables"`
	}
	e.ok(&e.admin, "export.exportDatabase", nil, &snap)
	assert.NotEmpty(t, snap.Version)
	assert.Contains(t, snap.Tables, content.KindPlaces)

	err = e.fail(&e.user, "export.exportDatabase", nil)
	assert.Equal(t, rpc.CodeForbidden, err.Code)
}

func TestSystemHealth(t *testing.T) {
	e := newEnv(t)

	var h struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Version  string `json:"version"`
	}
	e.ok(nil, "system.health", nil, &h)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Database)
	assert.Equal(t, "test", h.Version)
}
