// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/heritage-archive/internal/imaging"
	"github.com/olegiv/heritage-archive/internal/middleware"
	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/storage"
)

// multipartOverhead is allowed on top of the file limit for the multipart
// framing around the file.
const multipartOverhead = 64 << 10

// Upload outcomes reported to the observer.
const (
	uploadOK       = "ok"
	uploadTooLarge = "too_large"
	uploadRejected = "rejected"
	uploadError    = "error"
)

// UploadObserver is notified of every upload attempt.
type UploadObserver interface {
	ObserveUpload(outcome string)
}

// UploadHandler stores admin uploads in the object store.
type UploadHandler struct {
	store     storage.ObjectStore
	processor *imaging.Processor
	maxBytes  int64
	observer  UploadObserver
	logger    *slog.Logger
}

// NewUploadHandler creates an upload handler. A non-positive maxBytes
// selects model.MaxUploadSize; observer may be nil.
func NewUploadHandler(store storage.ObjectStore, processor *imaging.Processor, maxBytes int64, observer UploadObserver, logger *slog.Logger) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = model.MaxUploadSize
	}
	return &UploadHandler{
		store:     store,
		processor: processor,
		maxBytes:  maxBytes,
		observer:  observer,
		logger:    logger,
	}
}

// Upload handles POST /api/upload/{folder}. The request carries one file
// in the multipart field "file"; the response is the stored file's URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	folder := chi.URLParam(r, "folder")
	if !storage.ValidFolder(folder) {
		h.reject(w, http.StatusBadRequest, uploadRejected, "Invalid folder name")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		if isTooLarge(err) {
			h.reject(w, http.StatusRequestEntityTooLarge, uploadTooLarge, h.tooLargeMessage())
			return
		}
		h.reject(w, http.StatusBadRequest, uploadRejected, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.reject(w, http.StatusBadRequest, uploadRejected, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxBytes {
		h.reject(w, http.StatusRequestEntityTooLarge, uploadTooLarge, h.tooLargeMessage())
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read upload", "filename", header.Filename, "error", err)
		h.reject(w, http.StatusBadRequest, uploadError, "Unable to read file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.reject(w, http.StatusRequestEntityTooLarge, uploadTooLarge, h.tooLargeMessage())
		return
	}
	if len(data) == 0 {
		h.reject(w, http.StatusBadRequest, uploadRejected, "File is empty")
		return
	}

	mimeType := imaging.DetectMimeType(data)
	kind, ok := model.KindOf(mimeType)
	if !ok {
		h.reject(w, http.StatusBadRequest, uploadRejected, fmt.Sprintf("File type %s is not allowed", mimeType))
		return
	}

	result := &model.Upload{Folder: folder, Kind: kind, MimeType: mimeType}
	if kind == model.MediaImage {
		img, err := h.processor.Normalize(data)
		if err != nil {
			h.logger.WarnContext(ctx, "image rejected", "filename", header.Filename, "error", err)
			h.reject(w, http.StatusBadRequest, uploadRejected, "Image could not be processed")
			return
		}
		data = img.Data
		result.MimeType = img.MimeType
		result.Width = img.Width
		result.Height = img.Height
	}
	result.Size = int64(len(data))

	url, err := h.store.Put(ctx, folder, header.Filename, result.MimeType, bytes.NewReader(data), result.Size)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to store upload", "folder", folder, "filename", header.Filename, "error", err)
		h.reject(w, http.StatusBadRequest, uploadError, "Upload failed")
		return
	}
	result.URL = url

	h.observe(uploadOK)
	var uploader int64
	if u := middleware.GetUser(r); u != nil {
		uploader = u.ID
	}
	h.logger.InfoContext(ctx, "file uploaded",
		"url", url,
		"kind", result.Kind,
		"mime_type", result.MimeType,
		"size", result.Size,
		"uploaded_by", uploader,
	)
	writeJSON(w, http.StatusOK, result)
}

func (h *UploadHandler) reject(w http.ResponseWriter, status int, outcome, message string) {
	h.observe(outcome)
	writeJSONError(w, status, message)
}

func (h *UploadHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveUpload(outcome)
	}
}

func (h *UploadHandler) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds the %s limit", formatBytes(uint64(h.maxBytes)))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// Some multipart paths flatten the error to its text.
	return strings.Contains(err.Error(), "request body too large")
}
