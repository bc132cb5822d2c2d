// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Timeout bounds the time a handler may take before the client receives a
// 503 JSON error. Paths starting with one of the exempt prefixes are only
// bounded by the server's own timeouts; they stream large bodies.
//
// Once the deadline passes, anything the handler writes is discarded. A
// handler that already started its response keeps it.
func Timeout(d time.Duration, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exempt {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			dw := &deadlineWriter{w: w}
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-finished:
			case <-ctx.Done():
				dw.mu.Lock()
				if dw.state == stateIdle {
					WriteJSONError(w, http.StatusServiceUnavailable, "Request timeout")
				}
				dw.state = stateExpired
				dw.mu.Unlock()
			}
		})
	}
}

type writerState int

const (
	stateIdle writerState = iota
	stateStarted
	stateExpired
)

// deadlineWriter forwards to w until the deadline expires.
type deadlineWriter struct {
	w     http.ResponseWriter
	mu    sync.Mutex
	state writerState
}

func (d *deadlineWriter) Header() http.Header { return d.w.Header() }

func (d *deadlineWriter) WriteHeader(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateIdle {
		d.state = stateStarted
		d.w.WriteHeader(code)
	}
}

func (d *deadlineWriter) Write(b []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case stateExpired:
		return 0, http.ErrHandlerTimeout
	case stateIdle:
		d.state = stateStarted
		d.w.WriteHeader(http.StatusOK)
	}
	return d.w.Write(b)
}
