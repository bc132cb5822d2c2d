// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/heritage-archive/internal/transfer"
)

// ExportHandler serves the archive download.
type ExportHandler struct {
	exporter *transfer.Exporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exporter *transfer.Exporter, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{exporter: exporter, logger: logger, now: time.Now}
}

// Download handles GET /api/export/download and streams a zip archive of
// every table plus the locally stored uploads.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("heritage-export-%s.zip", h.now().UTC().Format("2006-01-02"))

	cw := &countingWriter{w: w}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.exporter.WriteZip(r.Context(), cw); err != nil {
		h.logger.ErrorContext(r.Context(), "export download failed", "bytes_written", cw.n, "error", err)
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			writeJSONError(w, http.StatusInternalServerError, "Export failed")
		}
		return
	}

	h.logger.InfoContext(r.Context(), "export downloaded", "filename", filename, "bytes", cw.n)
}

// countingWriter records how much of the response has been sent.
type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
