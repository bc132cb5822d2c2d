// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content implements the workflow store shared by every bilingual
// content kind. A Descriptor names the table, its fields and filters; a
// Store built from it provides the create, update, delete and listing
// operations and applies the status and publish-timestamp rules.
package content

import (
	"strings"

	"github.com/olegiv/heritage-archive/internal/model"
)

// FieldType is the storage and validation class of a field.
type FieldType int

// Field types.
const (
	Text FieldType = iota
	LongText
	RichText
	Int
	Float
	Bool
	Time
	StringList
	Enum
	Ref
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case LongText:
		return "long text"
	case RichText:
		return "rich text"
	case Int:
		return "integer"
	case Float:
		return "number"
	case Bool:
		return "boolean"
	case Time:
		return "timestamp"
	case StringList:
		return "list of strings"
	case Enum:
		return "enumeration"
	case Ref:
		return "reference id"
	default:
		return "unknown"
	}
}

// Length limits, in characters.
const (
	MaxTextLength     = 1024
	MaxLongTextLength = 1 << 20
)

// Field describes one column of a content table.
type Field struct {
	Name     string // wire name, camelCase
	Column   string
	Type     FieldType
	Required bool
	Values   []string // allowed values for Enum fields
}

// Descriptor defines one content kind.
type Descriptor struct {
	Kind       string
	Table      string
	Fields     []Field
	TitleField string            // base name of the bilingual title pair, e.g. "title"
	ImageField string            // wire name of the field used as thumbnail
	DateField  string            // wire name of the start date for upcoming listings
	Filters    map[string]string // filter key -> field wire name
	Latest     bool              // included in the homepage latest-content feed

	byName map[string]*Field
}

// Field returns the field with the given wire name.
func (d *Descriptor) Field(name string) (*Field, bool) {
	if d.byName != nil {
		f, ok := d.byName[name]
		return f, ok
	}
	for _, f := range d.allFields() {
		if f.Name == name {
			return &f, true
		}
	}
	return nil, false
}

func (d *Descriptor) index() {
	d.byName = make(map[string]*Field, len(d.Fields)+len(commonFields))
	for i := range commonFields {
		d.byName[commonFields[i].Name] = &commonFields[i]
	}
	for i := range d.Fields {
		d.byName[d.Fields[i].Name] = &d.Fields[i]
	}
}

// allFields returns the common fields followed by the kind's own fields.
func (d *Descriptor) allFields() []Field {
	out := make([]Field, 0, len(commonFields)+len(d.Fields))
	out = append(out, commonFields...)
	return append(out, d.Fields...)
}

// TitleNames returns the wire names of the English and Arabic title fields.
func (d *Descriptor) TitleNames() (en, ar string) {
	return d.TitleField + "En", d.TitleField + "Ar"
}

// Wire names of the fields shared by all kinds.
const (
	FieldSlug       = "slug"
	FieldStatus     = "status"
	FieldIsFeatured = "isFeatured"
	FieldTags       = "tags"
)

// Wire names of the fields maintained by the store.
const (
	FieldID          = "id"
	FieldAuthorID    = "authorId"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldPublishedAt = "publishedAt"
)

var commonFields = []Field{
	{Name: FieldSlug, Column: "slug", Type: Text},
	{Name: FieldStatus, Column: "status", Type: Enum, Values: model.Statuses},
	{Name: FieldIsFeatured, Column: "is_featured", Type: Bool},
	{Name: FieldTags, Column: "tags", Type: StringList},
}

// field builds a single-language field; the column is the snake_case form
// of the wire name.
func field(name string, typ FieldType) Field {
	return Field{Name: name, Column: snakeCase(name), Type: typ}
}

func required(f Field) Field {
	f.Required = true
	return f
}

func enum(name string, values ...string) Field {
	f := field(name, Enum)
	f.Values = values
	return f
}

// pair builds the English and Arabic variants of a bilingual field.
func pair(base string, typ FieldType) []Field {
	col := snakeCase(base)
	return []Field{
		{Name: base + "En", Column: col + "_en", Type: typ},
		{Name: base + "Ar", Column: col + "_ar", Type: typ},
	}
}

func fields(groups ...any) []Field {
	var out []Field
	for _, g := range groups {
		switch v := g.(type) {
		case Field:
			out = append(out, v)
		case []Field:
			out = append(out, v...)
		}
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
