// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/util"
)

const navigationColumns = `id, label_en, label_ar, url, parent_id, sort_order, is_active, featured_image, created_at, updated_at`

func scanNavigationItem(row scanner) (model.NavigationItem, error) {
	var (
		n             model.NavigationItem
		parentID      sql.NullInt64
		featuredImage sql.NullString
	)
	err := row.Scan(
		&n.ID,
		&n.LabelEn,
		&n.LabelAr,
		&n.URL,
		&parentID,
		&n.SortOrder,
		&n.IsActive,
		&featuredImage,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	n.ParentID = util.Int64Ptr(parentID)
	n.FeaturedImage = util.StringPtr(featuredImage)
	return n, err
}

func (q *Queries) listNavigation(ctx context.Context, query string, args ...any) ([]model.NavigationItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.NavigationItem{}
	for rows.Next() {
		n, err := scanNavigationItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

const listNavigationItems = `SELECT ` + navigationColumns + ` FROM navigation_items ORDER BY sort_order, id`

func (q *Queries) ListNavigationItems(ctx context.Context) ([]model.NavigationItem, error) {
	return q.listNavigation(ctx, listNavigationItems)
}

const listActiveNavigationItems = `SELECT ` + navigationColumns + ` FROM navigation_items
WHERE is_active = ? ORDER BY sort_order, id`

func (q *Queries) ListActiveNavigationItems(ctx context.Context) ([]model.NavigationItem, error) {
	return q.listNavigation(ctx, listActiveNavigationItems, true)
}

const getNavigationItem = `SELECT ` + navigationColumns + ` FROM navigation_items WHERE id = ?`

func (q *Queries) GetNavigationItem(ctx context.Context, id int64) (model.NavigationItem, error) {
	return scanNavigationItem(q.db.QueryRowContext(ctx, getNavigationItem, id))
}

const createNavigationItem = `INSERT INTO navigation_items (label_en, label_ar, url, parent_id, sort_order, is_active,
featured_image, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateNavigationItemParams struct {
	LabelEn       string
	LabelAr       string
	URL           string
	ParentID      *int64
	SortOrder     int64
	IsActive      bool
	FeaturedImage *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) CreateNavigationItem(ctx context.Context, arg CreateNavigationItemParams) (model.NavigationItem, error) {
	res, err := q.db.ExecContext(ctx, createNavigationItem,
		arg.LabelEn,
		arg.LabelAr,
		arg.URL,
		util.NullInt64FromPtr(arg.ParentID),
		arg.SortOrder,
		arg.IsActive,
		util.NullStringFromPtr(arg.FeaturedImage),
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return model.NavigationItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.NavigationItem{}, err
	}
	return q.GetNavigationItem(ctx, id)
}

// UpdateNavigationItem applies a partial patch; only the supplied columns
// change. updated_at is always refreshed.
func (q *Queries) UpdateNavigationItem(ctx context.Context, id int64, patch []Assignment, now time.Time) (model.NavigationItem, error) {
	values := make([]Assignment, 0, len(patch)+1)
	values = append(values, patch...)
	values = append(values, Assignment{Column: "updated_at", Value: now})
	if err := q.UpdateRow(ctx, "navigation_items", id, values); err != nil {
		return model.NavigationItem{}, err
	}
	return q.GetNavigationItem(ctx, id)
}

func (q *Queries) DeleteNavigationItem(ctx context.Context, id int64) error {
	return q.DeleteRow(ctx, "navigation_items", id)
}

func (q *Queries) CountNavigationItems(ctx context.Context) (int64, error) {
	return q.CountRows(ctx, "navigation_items", nil)
}
