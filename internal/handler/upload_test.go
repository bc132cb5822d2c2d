// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/heritage-archive/internal/imaging"
	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/storage"
	"github.com/olegiv/heritage-archive/internal/testutil"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *outcomeRecorder) ObserveUpload(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *outcomeRecorder) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.outcomes) == 0 {
		return ""
	}
	return o.outcomes[len(o.outcomes)-1]
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, string, string, io.Reader, int64) (string, error) {
	return "", errors.New("bucket unavailable")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody builds a form with data in field.
func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type uploadEnv struct {
	dir      string
	handler  *UploadHandler
	observed *outcomeRecorder
	router   chi.Router
}

func newUploadEnv(t *testing.T, maxBytes int64, maxDimension int) *uploadEnv {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	env := &uploadEnv{dir: dir, observed: &outcomeRecorder{}}
	env.handler = NewUploadHandler(local, imaging.NewProcessor(maxDimension), maxBytes, env.observed, testutil.TestLoggerSilent())
	env.router = chi.NewRouter()
	env.router.Post("/api/upload/{folder}", env.handler.Upload)
	return env
}

func (e *uploadEnv) post(t *testing.T, folder string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/upload/"+folder, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestUploadHandler_Image(t *testing.T) {
	env := newUploadEnv(t, 0, 0)
	body, ct := multipartBody(t, "file", "Portrait.PNG", pngBytes(t, 40, 20))

	w := env.post(t, "poets", body, ct)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got model.Upload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got.URL, "/uploads/poets/"), got.URL)
	assert.True(t, strings.HasSuffix(got.URL, ".png"), got.URL)
	assert.Equal(t, "poets", got.Folder)
	assert.Equal(t, model.MimeTypePNG, got.MimeType)
	assert.Equal(t, model.MediaImage, got.Kind)
	assert.Equal(t, 40, got.Width)
	assert.Equal(t, 20, got.Height)

	stored, err := os.ReadFile(filepath.Join(env.dir, strings.TrimPrefix(got.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, got.Size, int64(len(stored)))
	assert.Equal(t, "ok", env.observed.last())
}

func TestUploadHandler_ImageDownscaled(t *testing.T) {
	env := newUploadEnv(t, 0, 16)
	body, ct := multipartBody(t, "file", "wide.png", pngBytes(t, 64, 32))

	w := env.post(t, "archives", body, ct)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got model.Upload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 16, got.Width)
	assert.Equal(t, 8, got.Height)
}

func TestUploadHandler_Document(t *testing.T) {
	env := newUploadEnv(t, 0, 0)
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	body, ct := multipartBody(t, "file", "manuscript.pdf", pdf)

	w := env.post(t, "manuscripts", body, ct)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got model.Upload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.MimeTypePDF, got.MimeType)
	assert.Equal(t, model.MediaDocument, got.Kind)
	assert.True(t, strings.HasSuffix(got.URL, ".pdf"), got.URL)
	assert.Zero(t, got.Width)
}

func TestUploadHandler_TooLarge(t *testing.T) {
	t.Run("file over limit", func(t *testing.T) {
		env := newUploadEnv(t, 1024, 0)
		body, ct := multipartBody(t, "file", "big.pdf", append([]byte("%PDF-1.4\n"), make([]byte, 2048)...))

		w := env.post(t, "archives", body, ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, errorMessage(t, w), "limit")
		assert.Equal(t, "too_large", env.observed.last())
	})

	t.Run("body over limit", func(t *testing.T) {
		env := newUploadEnv(t, 1024, 0)
		huge := make([]byte, 1024+multipartOverhead+4096)
		body, ct := multipartBody(t, "file", "huge.pdf", huge)

		w := env.post(t, "archives", body, ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "too_large", env.observed.last())
	})

	t.Run("default limit is ten megabytes", func(t *testing.T) {
		env := newUploadEnv(t, 0, 0)
		assert.Equal(t, int64(model.MaxUploadSize), env.handler.maxBytes)
	})
}

func TestUploadHandler_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		folder  string
		field   string
		data    []byte
		wantMsg string
	}{
		{"invalid folder", "bad.folder", "file", []byte("%PDF-1.4"), "Invalid folder name"},
		{"uppercase folder", "Poems", "file", []byte("%PDF-1.4"), "Invalid folder name"},
		{"wrong field", "poems", "attachment", []byte("%PDF-1.4"), "No file uploaded"},
		{"empty file", "poems", "file", nil, "File is empty"},
		{"unsupported type", "poems", "file", []byte("just some text"), "is not allowed"},
		{"broken image", "poems", "file", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...), "Image could not be processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newUploadEnv(t, 0, 0)
			body, ct := multipartBody(t, tt.field, "file.bin", tt.data)

			w := env.post(t, tt.folder, body, ct)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, errorMessage(t, w), tt.wantMsg)
			assert.Equal(t, "rejected", env.observed.last())
		})
	}
}

func TestUploadHandler_NotMultipart(t *testing.T) {
	env := newUploadEnv(t, 0, 0)

	w := env.post(t, "poems", strings.NewReader(`{"file":"x"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid multipart form", errorMessage(t, w))
}

func TestUploadHandler_StoreFailure(t *testing.T) {
	observed := &outcomeRecorder{}
	h := NewUploadHandler(failingStore{}, imaging.NewProcessor(0), 0, observed, testutil.TestLoggerSilent())
	r := chi.NewRouter()
	r.Post("/api/upload/{folder}", h.Upload)

	body, ct := multipartBody(t, "file", "doc.pdf", []byte("%PDF-1.4\n%%EOF\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/archives", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Upload failed", errorMessage(t, w))
	assert.Equal(t, "error", observed.last())
}
