// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the plain HTTP endpoints of the server: health
// checks, OAuth sign-in, file uploads and the archive download. Procedure
// calls are served by package api.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/olegiv/heritage-archive/internal/middleware"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes {"error": message}.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	middleware.WriteJSONError(w, statusCode, message)
}
