// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/util"
)

// Listing limits.
const (
	DefaultFeaturedLimit = 6
	MaxListLimit         = 100
)

// Errors returned by Store. Anything else is a persistence failure that has
// already been logged.
var (
	ErrDuplicateSlug = errors.New("slug already exists")
	ErrNotFound      = store.ErrNotFound
)

// publishedOrder lists newest first; rows that never had a publish stamp
// fall back to their creation time.
const (
	publishedOrder = "COALESCE(published_at, created_at) DESC, id DESC"
	recentOrder    = "updated_at DESC, id DESC"
)

// Store implements the workflow operations for one content kind.
type Store struct {
	desc   *Descriptor
	q      *store.Queries
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a store for desc over db.
func NewStore(desc *Descriptor, db store.DBTX, logger *slog.Logger) *Store {
	return &Store{
		desc:   desc,
		q:      store.New(db),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Descriptor returns the kind definition of the store.
func (s *Store) Descriptor() *Descriptor {
	return s.desc
}

// Kind returns the content kind name.
func (s *Store) Kind() string {
	return s.desc.Kind
}

// fail logs a persistence failure with the operation and kind and wraps it.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "content store operation failed",
		"op", op,
		"kind", s.desc.Kind,
		"error", err,
	)
	return fmt.Errorf("%s %s: %w", s.desc.Kind, op, err)
}

// Create validates input and inserts a new record authored by authorID.
// The status defaults to draft; a published status stamps publishedAt.
func (s *Store) Create(ctx context.Context, authorID int64, in Input) (Record, error) {
	changes, err := Validate(s.desc, in, ModeCreate)
	if err != nil {
		return nil, err
	}

	slug := changes.String(FieldSlug)
	if slug == "" {
		en, ar := s.desc.TitleNames()
		title := changes.String(en)
		if title == "" {
			title = changes.String(ar)
		}
		if slug = util.Slugify(title); slug == "" {
			return nil, invalid(FieldSlug, "is required when it cannot be derived from the %s", s.desc.TitleField)
		}
	}

	status := changes.String(FieldStatus)
	if status == "" {
		status = model.StatusDraft
	}

	now := s.now()
	values := make([]store.Assignment, 0, len(changes)+8)
	for _, a := range changes.assignments() {
		if a.Column == "slug" || a.Column == "status" {
			continue
		}
		values = append(values, a)
	}
	values = append(values,
		store.Assignment{Column: "slug", Value: slug},
		store.Assignment{Column: "status", Value: status},
		store.Assignment{Column: "author_id", Value: authorID},
		store.Assignment{Column: "created_at", Value: now},
		store.Assignment{Column: "updated_at", Value: now},
	)
	if _, ok := changes.Get(FieldTags); !ok {
		values = append(values, store.Assignment{Column: "tags", Value: "[]"})
	}
	if _, ok := changes.Get(FieldIsFeatured); !ok {
		values = append(values, store.Assignment{Column: "is_featured", Value: false})
	}
	if status == model.StatusPublished {
		values = append(values, store.Assignment{Column: "published_at", Value: now})
	}

	id, err := s.q.InsertRow(ctx, s.desc.Table, values)
	if err != nil {
		if store.IsUniqueViolation(err) {
			s.logger.InfoContext(ctx, "duplicate slug rejected", "kind", s.desc.Kind, "slug", slug)
			return nil, ErrDuplicateSlug
		}
		return nil, s.fail(ctx, "create", err)
	}

	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, s.fail(ctx, "create", ErrNotFound)
	}
	return rec, nil
}

// Update applies a partial patch to the record with the given id. Fields
// absent from the patch are untouched; updatedAt is always refreshed and a
// published status stamps publishedAt. Moving away from published keeps the
// existing stamp.
func (s *Store) Update(ctx context.Context, id int64, patch Input) (Record, error) {
	changes, err := Validate(s.desc, patch, ModeUpdate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	values := changes.assignments()
	values = append(values, store.Assignment{Column: "updated_at", Value: now})
	if changes.String(FieldStatus) == model.StatusPublished {
		values = append(values, store.Assignment{Column: "published_at", Value: now})
	}

	if err := s.q.UpdateRow(ctx, s.desc.Table, id, values); err != nil {
		if store.IsUniqueViolation(err) {
			s.logger.InfoContext(ctx, "duplicate slug rejected", "kind", s.desc.Kind, "id", id)
			return nil, ErrDuplicateSlug
		}
		return nil, s.fail(ctx, "update", err)
	}

	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, s.fail(ctx, "update", ErrNotFound)
	}
	return rec, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.q.DeleteRow(ctx, s.desc.Table, id); err != nil {
		return s.fail(ctx, "delete", err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, op string, sel store.Select) ([]Record, error) {
	sel.Table = s.desc.Table
	sel.Columns = s.desc.columns()

	records := []Record{}
	err := s.q.SelectRows(ctx, sel, func(rows *sql.Rows) error {
		rec, err := s.desc.scanRecord(rows)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return records, nil
}

func (s *Store) one(ctx context.Context, op string, where ...store.Cond) (Record, error) {
	records, err := s.list(ctx, op, store.Select{Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetAll lists records in every status, most recently updated first.
func (s *Store) GetAll(ctx context.Context, filter Input) ([]Record, error) {
	conds, err := s.filterConds(filter)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, "getAll", store.Select{Where: conds, OrderBy: recentOrder})
}

// GetPublished lists published records, newest publication first.
func (s *Store) GetPublished(ctx context.Context, filter Input) ([]Record, error) {
	conds, err := s.filterConds(filter)
	if err != nil {
		return nil, err
	}
	conds = append(conds, store.Eq("status", model.StatusPublished))
	return s.list(ctx, "getPublished", store.Select{Where: conds, OrderBy: publishedOrder})
}

// GetFeatured lists published, featured records. A non-positive limit
// selects DefaultFeaturedLimit.
func (s *Store) GetFeatured(ctx context.Context, limit int) ([]Record, error) {
	return s.list(ctx, "getFeatured", store.Select{
		Where: []store.Cond{
			store.Eq("status", model.StatusPublished),
			store.Eq("is_featured", true),
		},
		OrderBy: publishedOrder,
		Limit:   clampLimit(limit, DefaultFeaturedLimit),
	})
}

// GetBySlug returns the record with slug, or nil when there is none.
// Unpublished records are only returned when includeUnpublished is set.
func (s *Store) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (Record, error) {
	conds := []store.Cond{store.Eq("slug", slug)}
	if !includeUnpublished {
		conds = append(conds, store.Eq("status", model.StatusPublished))
	}
	return s.one(ctx, "getBySlug", conds...)
}

// GetByID returns the record with id in any status, or nil.
func (s *Store) GetByID(ctx context.Context, id int64) (Record, error) {
	return s.one(ctx, "getById", store.Eq("id", id))
}

// Latest returns up to limit published records, newest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]Record, error) {
	return s.list(ctx, "latest", store.Select{
		Where:   []store.Cond{store.Eq("status", model.StatusPublished)},
		OrderBy: publishedOrder,
		Limit:   clampLimit(limit, DefaultFeaturedLimit),
	})
}

// Upcoming lists published records whose date field is at or after from,
// soonest first. It is only defined for kinds with a DateField.
func (s *Store) Upcoming(ctx context.Context, from time.Time) ([]Record, error) {
	f, ok := s.desc.Field(s.desc.DateField)
	if !ok || f.Type != Time {
		return nil, fmt.Errorf("%s has no date field", s.desc.Kind)
	}
	return s.list(ctx, "getUpcoming", store.Select{
		Where: []store.Cond{
			store.Eq("status", model.StatusPublished),
			{Column: f.Column, Op: ">=", Value: from.UTC()},
		},
		OrderBy: f.Column + " ASC, id ASC",
	})
}

// PublishedWhere lists published records whose field equals value.
func (s *Store) PublishedWhere(ctx context.Context, name string, value any) ([]Record, error) {
	f, ok := s.desc.Field(name)
	if !ok {
		return nil, fmt.Errorf("%s has no field %q", s.desc.Kind, name)
	}
	return s.list(ctx, "list", store.Select{
		Where: []store.Cond{
			store.Eq("status", model.StatusPublished),
			store.Eq(f.Column, value),
		},
		OrderBy: publishedOrder,
	})
}

// Count returns the number of records in every status.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.q.CountRows(ctx, s.desc.Table, nil)
	if err != nil {
		return 0, s.fail(ctx, "count", err)
	}
	return n, nil
}

// filterConds turns list filters into conditions. Unknown keys are ignored.
func (s *Store) filterConds(filter Input) ([]store.Cond, error) {
	var conds []store.Cond
	for key, raw := range filter {
		name, ok := s.desc.Filters[key]
		if !ok || isNull(raw) {
			continue
		}
		f, ok := s.desc.Field(name)
		if !ok {
			continue
		}
		v, err := parseValue(f, raw)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Field = key
			}
			return nil, err
		}
		conds = append(conds, store.Eq(f.Column, v))
	}
	return conds, nil
}

func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// FilterFromJSON decodes an optional JSON object of list filters.
func FilterFromJSON(raw json.RawMessage) (Input, error) {
	if isNull(raw) {
		return Input{}, nil
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, invalid("filter", "must be an object")
	}
	return in, nil
}
