// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/util"
)

// Input is the raw, not yet validated payload of a create, update or list call.
type Input map[string]json.RawMessage

// Mode selects the validation rules for a payload.
type Mode int

// Validation modes.
const (
	ModeCreate Mode = iota
	ModeUpdate
)

// ValidationError reports a payload field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Change is a validated field value ready to be written. Value is nil for NULL.
type Change struct {
	Field *Field
	Value any
}

// Changes is the ordered result of Validate.
type Changes []Change

// Get returns the value for the field with the given wire name.
func (c Changes) Get(name string) (any, bool) {
	for _, ch := range c {
		if ch.Field.Name == name {
			return ch.Value, true
		}
	}
	return nil, false
}

// String returns a non-NULL string value for name, or "".
func (c Changes) String(name string) string {
	v, _ := c.Get(name)
	s, _ := v.(string)
	return s
}

func (c Changes) assignments() []store.Assignment {
	out := make([]store.Assignment, len(c))
	for i, ch := range c {
		out[i] = store.Assignment{Column: ch.Field.Column, Value: ch.Value}
	}
	return out
}

// richTextPolicy is safe for concurrent use once built.
var richTextPolicy = bluemonday.UGCPolicy()

// sanitizeRichText strips markup the policy disallows. Values the policy
// leaves intact apart from entity escaping are stored as sent, so plain
// text containing & or < reads back unchanged.
func sanitizeRichText(s string) string {
	clean := strings.TrimSpace(richTextPolicy.Sanitize(s))
	if html.UnescapeString(clean) == html.UnescapeString(s) {
		return s
	}
	return clean
}

// Validate checks in against the descriptor and returns normalized values.
// Keys that are not fields of the kind are ignored, which also keeps
// store-maintained fields such as authorId out of client control.
func Validate(desc *Descriptor, in Input, mode Mode) (Changes, error) {
	var changes Changes
	for _, f := range desc.allFields() {
		raw, present := in[f.Name]
		if !present {
			if mode == ModeCreate && f.Required {
				return nil, invalid(f.Name, "is required")
			}
			continue
		}
		fp, _ := desc.Field(f.Name)
		v, err := parseValue(fp, raw)
		if err != nil {
			return nil, err
		}
		if v == nil {
			switch {
			case mode == ModeCreate && (f.Name == FieldSlug || f.Name == FieldStatus):
				// Defaulted by the store.
				continue
			case f.Required || f.Name == FieldSlug || f.Name == FieldStatus:
				return nil, invalid(f.Name, "is required")
			}
		}
		changes = append(changes, Change{Field: fp, Value: v})
	}

	if desc.TitleField != "" {
		en, ar := desc.TitleNames()
		_, hasEn := in[en]
		_, hasAr := in[ar]
		switch {
		case mode == ModeCreate && changes.String(en) == "" && changes.String(ar) == "":
			return nil, invalid(en, "an English or Arabic %s is required", desc.TitleField)
		case mode == ModeUpdate && hasEn && hasAr && changes.String(en) == "" && changes.String(ar) == "":
			return nil, invalid(en, "an English or Arabic %s is required", desc.TitleField)
		}
	}

	return changes, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseValue decodes raw according to the field type. JSON null yields nil.
func parseValue(f *Field, raw json.RawMessage) (any, error) {
	if isNull(raw) {
		switch f.Type {
		case Bool:
			return nil, invalid(f.Name, "must be a boolean")
		case StringList:
			return "[]", nil
		default:
			return nil, nil
		}
	}

	quoted := bytes.TrimSpace(raw)[0] == '"'
	switch f.Type {
	case Text, LongText, RichText, Enum:
		return parseString(f, raw)
	case Int, Ref:
		if quoted {
			return nil, invalid(f.Name, "must be a whole number")
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, invalid(f.Name, "must be a whole number")
		}
		i, err := n.Int64()
		if err != nil {
			return nil, invalid(f.Name, "must be a whole number")
		}
		if f.Type == Ref && i <= 0 {
			return nil, invalid(f.Name, "must be a positive id")
		}
		return i, nil
	case Float:
		if quoted {
			return nil, invalid(f.Name, "must be a number")
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, invalid(f.Name, "must be a number")
		}
		x, err := n.Float64()
		if err != nil {
			return nil, invalid(f.Name, "must be a number")
		}
		return x, nil
	case Bool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, invalid(f.Name, "must be a boolean")
		}
		return b, nil
	case Time:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalid(f.Name, "must be a date string")
		}
		t, err := parseTime(strings.TrimSpace(s))
		if err != nil {
			return nil, invalid(f.Name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		return t, nil
	case StringList:
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, invalid(f.Name, "must be an array of strings")
		}
		cleaned := make([]string, 0, len(list))
		for _, item := range list {
			if item = util.NormalizeText(item); item != "" {
				cleaned = append(cleaned, item)
			}
		}
		encoded, err := store.EncodeStringList(cleaned)
		if err != nil {
			return nil, invalid(f.Name, "must be an array of strings")
		}
		return encoded, nil
	default:
		return nil, invalid(f.Name, "has unsupported type")
	}
}

func parseString(f *Field, raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, invalid(f.Name, "must be a string")
	}
	s = util.NormalizeText(s)

	switch f.Type {
	case RichText:
		s = sanitizeRichText(s)
	case Enum:
		if !slices.Contains(f.Values, s) {
			return nil, invalid(f.Name, "must be one of %s", strings.Join(f.Values, ", "))
		}
		return s, nil
	}

	if f.Name == FieldSlug {
		if s == "" {
			return nil, nil
		}
		if !util.IsValidSlug(s) {
			return nil, invalid(f.Name, "must contain only lowercase letters, digits and single hyphens")
		}
		return s, nil
	}

	limit := MaxTextLength
	if f.Type != Text {
		limit = MaxLongTextLength
	}
	if utf8.RuneCountInString(s) > limit {
		return nil, invalid(f.Name, "must be at most %d characters", limit)
	}
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
