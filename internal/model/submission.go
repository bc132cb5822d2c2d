// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Submission content types accepted from anonymous contributors.
const (
	SubmissionTypeDocument = "document"
	SubmissionTypePhoto    = "photo"
	SubmissionTypeStory    = "story"
	SubmissionTypePoem     = "poem"
	SubmissionTypeOther    = "other"
)

// SubmissionTypes lists the accepted submission content types.
var SubmissionTypes = []string{
	SubmissionTypeDocument,
	SubmissionTypePhoto,
	SubmissionTypeStory,
	SubmissionTypePoem,
	SubmissionTypeOther,
}

// Submission is an anonymous contribution awaiting admin triage.
// Status reuses the workflow statuses: draft = new, review = in review,
// published = accepted.
type Submission struct {
	ID                int64      `json:"id"`
	SubmitterName     string     `json:"submitterName"`
	SubmitterContact  string     `json:"submitterContact"`
	ContentType       string     `json:"contentType"`
	TitleEn           *string    `json:"titleEn"`
	TitleAr           *string    `json:"titleAr"`
	DescriptionEn     *string    `json:"descriptionEn"`
	DescriptionAr     *string    `json:"descriptionAr"`
	FileURLs          []string   `json:"fileUrls"`
	DateText          *string    `json:"dateText"`
	PlaceText         *string    `json:"placeText"`
	PermissionGranted bool       `json:"permissionGranted"`
	Status            string     `json:"status"`
	ReviewNotes       *string    `json:"reviewNotes"`
	ReviewedAt        *time.Time `json:"reviewedAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsValidSubmissionType reports whether t is an accepted submission content type.
func IsValidSubmissionType(t string) bool {
	for _, st := range SubmissionTypes {
		if st == t {
			return true
		}
	}
	return false
}
