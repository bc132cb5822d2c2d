// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Workflow statuses shared by every content kind and by submissions.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusPublished = "published"
)

// Statuses lists the workflow statuses in display order.
var Statuses = []string{StatusDraft, StatusReview, StatusPublished}

// IsValidStatus reports whether s is a known workflow status.
// Transitions between statuses are unrestricted.
func IsValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished:
		return true
	default:
		return false
	}
}
