// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"database/sql"
	"time"

	"github.com/olegiv/heritage-archive/internal/store"
)

// Record is one stored content row keyed by wire name. NULL columns are
// present with a nil value so clients always see the full shape.
type Record map[string]any

// ID returns the row id.
func (r Record) ID() int64 {
	id, _ := r[FieldID].(int64)
	return id
}

// Slug returns the row slug.
func (r Record) Slug() string {
	return r.String(FieldSlug)
}

// Status returns the workflow status.
func (r Record) Status() string {
	return r.String(FieldStatus)
}

// String returns a text field, or "" when it is NULL or not text.
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Int returns an integer field and whether it is set.
func (r Record) Int(name string) (int64, bool) {
	n, ok := r[name].(int64)
	return n, ok
}

// Time returns a timestamp field, or nil when it is NULL.
func (r Record) Time(name string) *time.Time {
	t, ok := r[name].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

// PublishedAt returns the first-published timestamp, or nil.
func (r Record) PublishedAt() *time.Time {
	return r.Time(FieldPublishedAt)
}

var managedColumns = []string{"id", "author_id", "created_at", "updated_at", "published_at"}

func (d *Descriptor) columns() []string {
	all := d.allFields()
	cols := make([]string, 0, len(managedColumns)+len(all))
	cols = append(cols, managedColumns...)
	for _, f := range all {
		cols = append(cols, f.Column)
	}
	return cols
}

func (d *Descriptor) scanRecord(rows *sql.Rows) (Record, error) {
	var (
		id                   int64
		authorID             sql.NullInt64
		createdAt, updatedAt time.Time
		publishedAt          sql.NullTime
	)
	all := d.allFields()
	dests := make([]any, 0, len(managedColumns)+len(all))
	dests = append(dests, &id, &authorID, &createdAt, &updatedAt, &publishedAt)
	for _, f := range all {
		dests = append(dests, newScanDest(f.Type))
	}

	if err := rows.Scan(dests...); err != nil {
		return nil, err
	}

	rec := Record{
		FieldID:          id,
		FieldAuthorID:    nil,
		FieldCreatedAt:   createdAt.UTC(),
		FieldUpdatedAt:   updatedAt.UTC(),
		FieldPublishedAt: nil,
	}
	if authorID.Valid {
		rec[FieldAuthorID] = authorID.Int64
	}
	if publishedAt.Valid {
		rec[FieldPublishedAt] = publishedAt.Time.UTC()
	}

	for i, f := range all {
		v, err := scanValue(f.Type, dests[len(managedColumns)+i])
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func newScanDest(t FieldType) any {
	switch t {
	case Int, Ref:
		return new(sql.NullInt64)
	case Float:
		return new(sql.NullFloat64)
	case Bool:
		return new(sql.NullBool)
	case Time:
		return new(sql.NullTime)
	default:
		return new(sql.NullString)
	}
}

func scanValue(t FieldType, dest any) (any, error) {
	switch v := dest.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64, nil
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64, nil
		}
	case *sql.NullBool:
		return v.Valid && v.Bool, nil
	case *sql.NullTime:
		if v.Valid {
			return v.Time.UTC(), nil
		}
	case *sql.NullString:
		if t == StringList {
			return store.DecodeStringList(*v)
		}
		if v.Valid {
			return v.String, nil
		}
	}
	return nil, nil
}
