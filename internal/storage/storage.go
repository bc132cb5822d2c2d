// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage stores uploaded files and returns their public URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFolder is returned for folder labels that are not lowercase slugs.
var ErrInvalidFolder = errors.New("invalid upload folder")

// ObjectStore persists an uploaded file and returns its public URL.
type ObjectStore interface {
	Put(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64) (string, error)
}

var folderRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidFolder reports whether folder can be used as an upload folder.
func ValidFolder(folder string) bool {
	return folderRegex.MatchString(folder)
}

var extRegex = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// preferredExt fixes the extension for types where mime.ExtensionsByType
// returns several candidates in an unhelpful order.
var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"audio/mpeg":      ".mp3",
	"audio/wave":      ".wav",
	"application/ogg": ".ogg",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
}

// ObjectKey builds a collision-free key "<folder>/<uuid><ext>". The client
// filename only contributes its extension, and only when it is plain.
func ObjectKey(folder, filename, contentType string) (string, error) {
	if !ValidFolder(folder) {
		return "", ErrInvalidFolder
	}
	return folder + "/" + uuid.NewString() + extension(filename, contentType), nil
}

func extension(filename, contentType string) string {
	if ext, ok := preferredExt[contentType]; ok {
		return ext
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if extRegex.MatchString(ext) {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
