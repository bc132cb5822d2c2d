// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// MaxUploadSize is the default upper bound for a single uploaded file.
const MaxUploadSize = 10 << 20

// MediaKind groups the accepted upload types.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaAudio    MediaKind = "audio"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Accepted MIME types as reported by content sniffing.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypePDF  = "application/pdf"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeWAV  = "audio/wave"
	MimeTypeOGG  = "application/ogg"
	MimeTypeMP4  = "video/mp4"
	MimeTypeWebM = "video/webm"
)

var mediaKinds = map[string]MediaKind{
	MimeTypeJPEG: MediaImage,
	MimeTypePNG:  MediaImage,
	MimeTypeGIF:  MediaImage,
	MimeTypeWebP: MediaImage,
	MimeTypeMP3:  MediaAudio,
	MimeTypeWAV:  MediaAudio,
	MimeTypeOGG:  MediaAudio, // poem recitations
	MimeTypeMP4:  MediaVideo,
	MimeTypeWebM: MediaVideo,
	MimeTypePDF:  MediaDocument,
}

// KindOf classifies mimeType. ok is false for types that are not accepted.
func KindOf(mimeType string) (kind MediaKind, ok bool) {
	kind, ok = mediaKinds[mimeType]
	return kind, ok
}

// Upload is the response body of a successful upload.
type Upload struct {
	URL      string    `json:"url"`
	Folder   string    `json:"folder"`
	Kind     MediaKind `json:"kind"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
}
