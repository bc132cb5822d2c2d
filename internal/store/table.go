// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Assignment is one column value of an INSERT or UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// Cond is a single predicate of a WHERE clause. Conditions are ANDed.
type Cond struct {
	Column string
	Op     string // one of =, <>, <, <=, >, >=
	Value  any
}

// Eq builds an equality condition.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Op: "=", Value: value}
}

// Select describes a query over a single table.
type Select struct {
	Table   string
	Columns []string
	Where   []Cond
	OrderBy string
	Limit   int
}

var allowedOps = map[string]bool{"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true}

func whereClause(conds []Cond) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		if !allowedOps[c.Op] {
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		if c.Value == nil {
			if c.Op != "=" {
				return "", nil, fmt.Errorf("operator %q cannot compare NULL", c.Op)
			}
			parts = append(parts, c.Column+" IS NULL")
			continue
		}
		parts = append(parts, c.Column+" "+c.Op+" ?")
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// InsertRow inserts one row and returns its generated id.
func (q *Queries) InsertRow(ctx context.Context, table string, values []Assignment) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("insert into %s: no values", table)
	}
	cols := make([]string, len(values))
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		cols[i] = v.Column
		marks[i] = "?"
		args[i] = v.Value
	}

	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert into %s: reading id: %w", table, err)
	}
	return id, nil
}

// UpdateRow applies values to the row with the given id.
// It returns ErrNotFound when no row has that id.
func (q *Queries) UpdateRow(ctx context.Context, table string, id int64, values []Assignment) error {
	if len(values) == 0 {
		return fmt.Errorf("update %s: no values", table)
	}
	sets := make([]string, len(values))
	args := make([]any, 0, len(values)+1)
	for i, v := range values {
		sets[i] = v.Column + " = ?"
		args = append(args, v.Value)
	}
	args = append(args, id)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return checkAffected(res, table)
}

// DeleteRow removes the row with the given id.
// It returns ErrNotFound when no row has that id.
func (q *Queries) DeleteRow(ctx context.Context, table string, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return checkAffected(res, table)
}

func checkAffected(res sql.Result, table string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: reading affected rows: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SelectRows runs sel and calls scan once per result row.
func (q *Queries) SelectRows(ctx context.Context, sel Select, scan func(*sql.Rows) error) error {
	if len(sel.Columns) == 0 {
		return fmt.Errorf("select from %s: no columns", sel.Table)
	}
	where, args, err := whereClause(sel.Where)
	if err != nil {
		return fmt.Errorf("select from %s: %w", sel.Table, err)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(sel.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(sel.Table)
	b.WriteString(where)
	if sel.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(sel.OrderBy)
	}
	if sel.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, sel.Limit)
	}

	rows, err := q.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return fmt.Errorf("select from %s: %w", sel.Table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("select from %s: %w", sel.Table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("select from %s: %w", sel.Table, err)
	}
	return nil
}

// CountRows returns the number of rows in table matching where.
func (q *Queries) CountRows(ctx context.Context, table string, where []Cond) (int64, error) {
	clause, args, err := whereClause(where)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	var n int64
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
