// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/heritage-archive/internal/logging"
	"github.com/olegiv/heritage-archive/internal/middleware"
)

// Transport limits.
const (
	DefaultMaxBodyBytes = 1 << 20
	DefaultMaxBatchSize = 50
)

// CodeOK is reported to observers for successful calls.
const CodeOK = "OK"

// Observer is notified of every finished call.
type Observer interface {
	ObserveCall(procedure, code string, elapsed time.Duration)
}

// Request is one call on the wire.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the outcome of one call on the wire. Exactly one of Result
// and Error is set.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Server exposes a Registry over HTTP.
type Server struct {
	registry     *Registry
	logger       *slog.Logger
	observer     Observer
	maxBodyBytes int64
	maxBatchSize int
}

// Option configures a Server.
type Option func(*Server)

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(s *Server) { s.observer = o }
}

// WithMaxBodyBytes limits the request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithMaxBatchSize limits the number of calls in one batch.
func WithMaxBatchSize(n int) Option {
	return func(s *Server) { s.maxBatchSize = n }
}

// NewServer creates a transport for registry.
func NewServer(registry *Registry, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		registry:     registry,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount registers the transport routes on r:
//
//	POST /api/rpc           single call object or batch array
//	GET  /api/rpc/{method}  query procedure, params in ?input=
func (s *Server) Mount(r chi.Router) {
	r.Post("/api/rpc", s.HandlePost)
	r.Get("/api/rpc/{method}", s.HandleGet)
}

// HandlePost serves single and batched calls. A single call answers with
// the HTTP status of its outcome; a batch always answers 200 with one
// response per call, in order.
func (s *Server) HandlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeTransportError(w, r, http.StatusRequestEntityTooLarge,
				BadRequest(fmt.Sprintf("Request body exceeds %d bytes", s.maxBodyBytes)))
			return
		}
		s.writeTransportError(w, r, http.StatusBadRequest, BadRequest("Invalid JSON body"))
		return
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []Request
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			s.writeTransportError(w, r, http.StatusBadRequest, BadRequest("Invalid batch"))
			return
		}
		if len(batch) == 0 {
			s.writeTransportError(w, r, http.StatusBadRequest, BadRequest("Empty batch"))
			return
		}
		if len(batch) > s.maxBatchSize {
			s.writeTransportError(w, r, http.StatusBadRequest,
				BadRequest(fmt.Sprintf("Batch exceeds %d calls", s.maxBatchSize)))
			return
		}

		out := make([]Response, 0, len(batch))
		for _, req := range batch {
			out = append(out, s.execute(r.Context(), r, req, false))
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		s.writeTransportError(w, r, http.StatusBadRequest, BadRequest("Invalid call"))
		return
	}
	s.writeResponse(w, s.execute(r.Context(), r, req, false))
}

// HandleGet serves a query procedure named in the path.
func (s *Server) HandleGet(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: chi.URLParam(r, "method")}
	if input := r.URL.Query().Get("input"); input != "" {
		if !json.Valid([]byte(input)) {
			s.writeTransportError(w, r, http.StatusBadRequest, BadField("input", "must be valid JSON"))
			return
		}
		req.Params = json.RawMessage(input)
	}
	s.writeResponse(w, s.execute(r.Context(), r, req, true))
}

// execute runs one call and never fails: every outcome becomes a Response.
func (s *Server) execute(ctx context.Context, r *http.Request, req Request, viaGET bool) Response {
	start := time.Now()
	ctx = logging.WithAttrs(ctx, slog.String("procedure", req.Method))

	result, err := s.dispatch(ctx, r, req, viaGET)

	code := CodeOK
	resp := Response{ID: req.ID}
	if err == nil {
		encoded, merr := json.Marshal(result)
		if merr != nil {
			err = Internal(fmt.Errorf("encoding result: %w", merr))
		} else {
			resp.Result = encoded
		}
	}
	if err != nil {
		rerr := AsError(err)
		code = string(rerr.Code)
		resp.Error = rerr
		s.logFailure(ctx, rerr, err)
	}

	if s.observer != nil {
		s.observer.ObserveCall(req.Method, code, time.Since(start))
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, r *http.Request, req Request, viaGET bool) (result any, err error) {
	if req.Method == "" {
		return nil, BadField("method", "is required")
	}
	proc, ok := s.registry.Lookup(req.Method)
	if !ok {
		return nil, NotFound(fmt.Sprintf("No procedure found on path %q", req.Method))
	}
	if viaGET && proc.Type == Mutation {
		return nil, BadRequest(fmt.Sprintf("Mutation %q requires POST", req.Method))
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "procedure panicked",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			result, err = nil, Internal(fmt.Errorf("panic: %v", rec))
		}
	}()

	call := &Call{
		Method:    req.Method,
		Params:    req.Params,
		Principal: middleware.GetUserFromContext(ctx),
		Request:   r,
	}
	return s.registry.Invoke(ctx, call)
}

// logFailure logs a failed call once. The procedure name comes from the
// context attributes. Internal failures carry their cause; client errors
// are logged at a lower level.
func (s *Server) logFailure(ctx context.Context, rerr *Error, err error) {
	if rerr.Code == CodeInternal {
		s.logger.ErrorContext(ctx, "procedure failed",
			"code", rerr.Code,
			"error", err,
		)
		return
	}
	s.logger.InfoContext(ctx, "procedure rejected",
		"code", rerr.Code,
		"message", rerr.Message,
		"field", rerr.Field,
	)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp Response) {
	status := http.StatusOK
	if resp.Error != nil {
		status = resp.Error.Code.HTTPStatus()
	}
	writeJSON(w, status, resp)
}

func (s *Server) writeTransportError(w http.ResponseWriter, r *http.Request, status int, rerr *Error) {
	s.logger.InfoContext(r.Context(), "rpc request rejected", "status", status, "message", rerr.Message)
	writeJSON(w, status, Response{Error: rerr})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
