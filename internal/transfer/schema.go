// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer exports the archive database as JSON snapshots and zip
// downloads.
package transfer

import (
	"time"

	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/model"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// Tables exported next to the content kinds.
const (
	TableSubmissions = "submissions"
	TableNavigation  = "navigation"
	TableUsers       = "users"
)

// Snapshot is a full export. Tables maps each content kind and the
// auxiliary tables to their rows; Counts holds the row count per table.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Tables     map[string]any   `json:"tables"`
	Counts     map[string]int64 `json:"counts"`
}

// KindExport holds every record of one content kind.
type KindExport struct {
	Version    string           `json:"version"`
	Kind       string           `json:"kind"`
	ExportedAt time.Time        `json:"exportedAt"`
	Count      int              `json:"count"`
	Items      []content.Record `json:"items"`
}

// Stats holds row counts per table.
type Stats struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// ExportUser is a principal without its external identity.
type ExportUser struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LoginMethod  string    `json:"loginMethod"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

func exportUser(u model.User) ExportUser {
	return ExportUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		LoginMethod:  u.LoginMethod,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		LastSignedIn: u.LastSignedIn,
	}
}
