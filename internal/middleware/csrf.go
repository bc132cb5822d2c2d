// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"filippo.io/csrf/gorilla"
)

// CrossOriginConfig holds configuration for cross-origin request protection.
// filippo.io/csrf/gorilla relies on Fetch metadata and Origin headers rather
// than tokens, so the SPA needs no extra plumbing.
type CrossOriginConfig struct {
	// AuthKey is a 32-byte key required by the gorilla-compatible API.
	AuthKey []byte

	// AllowedOrigins are origins (URLs or bare hosts) whose state-changing
	// cross-origin requests are accepted.
	AllowedOrigins []string

	// ErrorHandler is called when validation fails.
	ErrorHandler http.Handler
}

// CrossOrigin returns middleware that rejects cross-origin state-changing
// requests unless the origin is allowed.
func CrossOrigin(cfg CrossOriginConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(crossOriginErrorHandler)))
	}

	if hosts := TrustedHosts(cfg.AllowedOrigins); len(hosts) > 0 {
		opts = append(opts, csrf.TrustedOrigins(hosts))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

// TrustedHosts converts configured origins to the host[:port] form the csrf
// library expects. Empty entries are dropped.
func TrustedHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if strings.Contains(o, "://") {
			u, err := url.Parse(o)
			if err != nil || u.Host == "" {
				slog.Warn("ignoring invalid allowed origin", "origin", o)
				continue
			}
			o = u.Host
		}
		hosts = append(hosts, strings.TrimSuffix(o, "/"))
	}
	return hosts
}

func crossOriginErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := csrf.FailureReason(r)
	reasonStr := "unknown"
	if reason != nil {
		reasonStr = reason.Error()
	}
	slog.WarnContext(r.Context(), "cross-origin request rejected",
		"reason", reasonStr,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	WriteJSONError(w, http.StatusForbidden, "Cross-origin request rejected")
}
