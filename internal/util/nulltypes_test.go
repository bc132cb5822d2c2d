// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullInt64FromPtr(t *testing.T) {
	assert.False(t, NullInt64FromPtr(nil).Valid)

	v := int64(42)
	got := NullInt64FromPtr(&v)
	assert.True(t, got.Valid)
	assert.Equal(t, int64(42), got.Int64)
}

func TestNullStringFromPtr(t *testing.T) {
	assert.False(t, NullStringFromPtr(nil).Valid)

	empty := ""
	got := NullStringFromPtr(&empty)
	assert.True(t, got.Valid, "empty string pointer is a valid value")
	assert.Equal(t, "", got.String)
}

func TestPointerHelpers(t *testing.T) {
	assert.Nil(t, Int64Ptr(sql.NullInt64{}))
	assert.Nil(t, StringPtr(sql.NullString{}))
	assert.Nil(t, TimePtr(sql.NullTime{}))

	n := Int64Ptr(sql.NullInt64{Int64: 7, Valid: true})
	require.NotNil(t, n)
	assert.Equal(t, int64(7), *n)

	s := StringPtr(sql.NullString{String: "نص", Valid: true})
	require.NotNil(t, s)
	assert.Equal(t, "نص", *s)

	now := time.Now()
	tp := TimePtr(sql.NullTime{Time: now, Valid: true})
	require.NotNil(t, tp)
	assert.True(t, now.Equal(*tp))
}
