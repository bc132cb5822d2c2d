// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFolder(t *testing.T) {
	for _, f := range []string{"archives", "poems", "poet-portraits", "a1", "nav_images"} {
		assert.True(t, ValidFolder(f), f)
	}
	for _, f := range []string{"", "../etc", "Archives", "a/b", "-lead", ".hidden", strings.Repeat("a", 65)} {
		assert.False(t, ValidFolder(f), f)
	}
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey("photos", "Old Souq.JPEG", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "photos/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	other, err := ObjectKey("photos", "Old Souq.JPEG", "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	key, err = ObjectKey("docs", "../../evil.sh", "application/x-custom")
	require.NoError(t, err)
	assert.NotContains(t, key, "..")
	assert.True(t, strings.HasSuffix(key, ".sh"))

	key, err = ObjectKey("docs", "weird.name.<script>", "application/x-custom")
	require.NoError(t, err)
	assert.NotContains(t, key, "<")

	_, err = ObjectKey("../x", "a.png", "image/png")
	assert.ErrorIs(t, err, ErrInvalidFolder)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	u, err := s.Put(context.Background(), "archives", "scan.pdf", "application/pdf", strings.NewReader("%PDF-1.4 body"), 13)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "/uploads/archives/"))
	assert.True(t, strings.HasSuffix(u, ".pdf"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(u, "/uploads/"))))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	t.Run("size bounds the copy", func(t *testing.T) {
		u, err := s.Put(context.Background(), "archives", "a.txt", "text/plain", strings.NewReader("0123456789"), 4)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(u, "/uploads/"))))
		require.NoError(t, err)
		assert.Equal(t, "0123", string(data))
	})

	t.Run("invalid folder", func(t *testing.T) {
		_, err := s.Put(context.Background(), "../..", "a.png", "image/png", strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, ErrInvalidFolder)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Put(ctx, "archives", "a.png", "image/png", strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("handler serves files but not listings", func(t *testing.T) {
		h := http.StripPrefix("/uploads", s.Handler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "%PDF-1.4 body", rec.Body.String())
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/archives/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMinioStore_URL(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{Endpoint: "s3.example.com", Bucket: "heritage", UseSSL: true, Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/heritage/photos/a.jpg", s.URL("photos/a.jpg"))

	s, err = NewMinioStore(MinioConfig{Endpoint: "s3.example.com", Bucket: "heritage", PublicURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/a.jpg", s.URL("photos/a.jpg"))
}

func TestMinioStore_Put(t *testing.T) {
	var (
		mu        sync.Mutex
		gotPath   string
		gotType   string
		gotMethod string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint, err := url.Parse(srv.URL)
	require.NoError(t, err)

	s, err := NewMinioStore(MinioConfig{
		Endpoint:  endpoint.Host,
		Bucket:    "heritage",
		Region:    "us-east-1",
		AccessKey: "access",
		SecretKey: "secret-key",
	})
	require.NoError(t, err)

	body := "poem recitation"
	u, err := s.Put(context.Background(), "poems", "reading.mp3", "audio/mpeg", strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://"+endpoint.Host+"/heritage/poems/"))
	assert.True(t, strings.HasSuffix(u, ".mp3"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/heritage/poems/"), gotPath)
	assert.Equal(t, "audio/mpeg", gotType)
}
