// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/testutil"
)

type fixture struct {
	reg   *content.Registry
	admin model.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.TestDB(t)
	return fixture{
		reg:   content.NewRegistry(db, testutil.TestLoggerSilent()),
		admin: testutil.CreateAdmin(t, db),
	}
}

func input(t *testing.T, fields map[string]any) content.Input {
	t.Helper()
	in := content.Input{}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		in[k] = raw
	}
	return in
}

// validFields returns a minimal valid create payload for d.
func validFields(d *content.Descriptor, slug string) map[string]any {
	en, _ := d.TitleNames()
	fields := map[string]any{
		"slug": slug,
		en:     fmt.Sprintf("%s %s", d.Kind, slug),
	}
	for _, f := range d.Fields {
		if !f.Required {
			continue
		}
		switch f.Type {
		case content.Time:
			fields[f.Name] = time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
		default:
			fields[f.Name] = "https://example.com/" + slug
		}
	}
	return fields
}

func ids(records []content.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}
