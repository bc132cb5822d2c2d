// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/util"
)

const submissionColumns = `id, submitter_name, submitter_contact, content_type, title_en, title_ar,
description_en, description_ar, file_urls, date_text, place_text, permission_granted, status,
review_notes, reviewed_at, created_at, updated_at`

func scanSubmission(row scanner) (model.Submission, error) {
	var (
		s                                      model.Submission
		titleEn, titleAr, descEn, descAr       sql.NullString
		fileURLs, dateText, placeText, reviewN sql.NullString
		reviewedAt                             sql.NullTime
	)
	err := row.Scan(
		&s.ID,
		&s.SubmitterName,
		&s.SubmitterContact,
		&s.ContentType,
		&titleEn,
		&titleAr,
		&descEn,
		&descAr,
		&fileURLs,
		&dateText,
		&placeText,
		&s.PermissionGranted,
		&s.Status,
		&reviewN,
		&reviewedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}
	s.TitleEn = util.StringPtr(titleEn)
	s.TitleAr = util.StringPtr(titleAr)
	s.DescriptionEn = util.StringPtr(descEn)
	s.DescriptionAr = util.StringPtr(descAr)
	s.DateText = util.StringPtr(dateText)
	s.PlaceText = util.StringPtr(placeText)
	s.ReviewNotes = util.StringPtr(reviewN)
	s.ReviewedAt = util.TimePtr(reviewedAt)
	s.FileURLs, err = DecodeStringList(fileURLs)
	return s, err
}

const getSubmission = `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`

func (q *Queries) GetSubmission(ctx context.Context, id int64) (model.Submission, error) {
	return scanSubmission(q.db.QueryRowContext(ctx, getSubmission, id))
}

const createSubmission = `INSERT INTO submissions (submitter_name, submitter_contact, content_type, title_en, title_ar,
description_en, description_ar, file_urls, date_text, place_text, permission_granted, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateSubmissionParams struct {
	SubmitterName     string
	SubmitterContact  string
	ContentType       string
	TitleEn           *string
	TitleAr           *string
	DescriptionEn     *string
	DescriptionAr     *string
	FileURLs          []string
	DateText          *string
	PlaceText         *string
	PermissionGranted bool
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (q *Queries) CreateSubmission(ctx context.Context, arg CreateSubmissionParams) (model.Submission, error) {
	fileURLs, err := EncodeStringList(arg.FileURLs)
	if err != nil {
		return model.Submission{}, err
	}
	res, err := q.db.ExecContext(ctx, createSubmission,
		arg.SubmitterName,
		arg.SubmitterContact,
		arg.ContentType,
		util.NullStringFromPtr(arg.TitleEn),
		util.NullStringFromPtr(arg.TitleAr),
		util.NullStringFromPtr(arg.DescriptionEn),
		util.NullStringFromPtr(arg.DescriptionAr),
		fileURLs,
		util.NullStringFromPtr(arg.DateText),
		util.NullStringFromPtr(arg.PlaceText),
		arg.PermissionGranted,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return model.Submission{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Submission{}, err
	}
	return q.GetSubmission(ctx, id)
}

const listSubmissions = `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC, id DESC`

func (q *Queries) ListSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := q.db.QueryContext(ctx, listSubmissions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const updateSubmissionStatus = `UPDATE submissions SET status = ?, review_notes = COALESCE(?, review_notes),
reviewed_at = ?, updated_at = ? WHERE id = ?`

type UpdateSubmissionStatusParams struct {
	ID          int64
	Status      string
	ReviewNotes *string
	ReviewedAt  time.Time
	UpdatedAt   time.Time
}

// UpdateSubmissionStatus records a triage decision. Review notes are kept
// when the patch carries none.
func (q *Queries) UpdateSubmissionStatus(ctx context.Context, arg UpdateSubmissionStatusParams) (model.Submission, error) {
	res, err := q.db.ExecContext(ctx, updateSubmissionStatus,
		arg.Status,
		util.NullStringFromPtr(arg.ReviewNotes),
		arg.ReviewedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return model.Submission{}, err
	}
	if err := checkAffected(res, "submissions"); err != nil {
		return model.Submission{}, err
	}
	return q.GetSubmission(ctx, arg.ID)
}

func (q *Queries) DeleteSubmission(ctx context.Context, id int64) error {
	return q.DeleteRow(ctx, "submissions", id)
}

func (q *Queries) CountSubmissions(ctx context.Context) (int64, error) {
	return q.CountRows(ctx, "submissions", nil)
}
