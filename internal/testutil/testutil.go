// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the heritage archive.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates an isolated in-memory database with all migrations applied.
// The database is closed when the test ends.
func TestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := store.Migrate(context.Background(), db, store.DialectSQLite); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return &store.DB{DB: db, Dialect: store.DialectSQLite}
}

var userSeq atomic.Int64

// CreateUser inserts a principal with the given role.
func CreateUser(t *testing.T, db *store.DB, role string) model.User {
	t.Helper()

	n := userSeq.Add(1)
	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		OpenID:       fmt.Sprintf("test-open-id-%d", n),
		Name:         fmt.Sprintf("Test %s %d", role, n),
		Email:        fmt.Sprintf("%s%d@example.com", role, n),
		LoginMethod:  "test",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSignedIn: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// CreateAdmin inserts a principal with the admin role.
func CreateAdmin(t *testing.T, db *store.DB) model.User {
	t.Helper()
	return CreateUser(t, db, model.RoleAdmin)
}
