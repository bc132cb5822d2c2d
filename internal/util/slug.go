// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers shared across packages: slugs, text
// normalization for bilingual (English/Arabic) content and nullable column
// conversions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the longest slug accepted or generated.
const MaxSlugLength = 200

var validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a title. Arabic and other non-Latin
// titles are transliterated to ASCII first. Apostrophes vanish, every other
// run of non-alphanumerics becomes one hyphen.
func Slugify(title string) string {
	plain, _, err := transform.String(stripMarks, title)
	if err != nil {
		plain = title
	}
	plain = unidecode.Unidecode(plain)

	var b strings.Builder
	b.Grow(len(plain))
	gap := false
	for _, r := range plain {
		switch {
		case r == '\'' || r == '`':
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(unicode.ToLower(r))
		default:
			gap = true
		}
		if b.Len() >= MaxSlugLength {
			break
		}
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = slug[:MaxSlugLength]
	}
	return strings.TrimRight(slug, "-")
}

// IsValidSlug reports whether s is lowercase ASCII words joined by single
// hyphens and no longer than MaxSlugLength.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && validSlug.MatchString(s)
}

// NormalizeText trims surrounding whitespace and converts text to Unicode NFC,
// so visually identical Arabic strings compare and index equally.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
