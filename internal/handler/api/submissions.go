// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/heritage-archive/internal/model"
	"github.com/olegiv/heritage-archive/internal/rpc"
	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/util"
)

// Submission limits.
const (
	maxSubmitterField  = 200
	maxSubmissionTitle = 500
	maxSubmissionText  = 10000
	maxSubmissionFiles = 20
	maxFileURL         = 2048
)

type createSubmissionInput struct {
	SubmitterName     string   `json:"submitterName"`
	SubmitterContact  string   `json:"submitterContact"`
	ContentType       string   `json:"contentType"`
	TitleEn           *string  `json:"titleEn"`
	TitleAr           *string  `json:"titleAr"`
	DescriptionEn     *string  `json:"descriptionEn"`
	DescriptionAr     *string  `json:"descriptionAr"`
	FileURLs          []string `json:"fileUrls"`
	DateText          *string  `json:"dateText"`
	PlaceText         *string  `json:"placeText"`
	PermissionGranted bool     `json:"permissionGranted"`
}

type updateSubmissionStatusInput struct {
	ID          *int64  `json:"id"`
	Status      string  `json:"status"`
	ReviewNotes *string `json:"reviewNotes"`
}

func (rt *Router) registerSubmissions(reg *rpc.Registry) {
	reg.Mutation("submissions.create", rpc.TierPublic, rt.createSubmission)

	reg.Query("submissions.getAll", rpc.TierAdmin, func(ctx context.Context, _ *rpc.Call) (any, error) {
		items, err := rt.queries.ListSubmissions(ctx)
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return items, nil
	})

	rt.adminWrite(reg, "submissions.updateStatus", func(ctx context.Context, call *rpc.Call) (any, error) {
		var in updateSubmissionStatusInput
		if err := call.Bind(&in); err != nil {
			return nil, err
		}
		if in.ID == nil || *in.ID <= 0 {
			return nil, rpc.BadField("id", "must be a positive integer")
		}
		if !model.IsValidStatus(in.Status) {
			return nil, rpc.BadField("status", "must be one of "+strings.Join(model.Statuses, ", "))
		}
		notes, err := optionalText(in.ReviewNotes, "reviewNotes", maxSubmissionText)
		if err != nil {
			return nil, err
		}
		now := rt.now()
		sub, err := rt.queries.UpdateSubmissionStatus(ctx, store.UpdateSubmissionStatusParams{
			ID:          *in.ID,
			Status:      in.Status,
			ReviewNotes: notes,
			ReviewedAt:  now,
			UpdatedAt:   now,
		})
		if err != nil {
			return nil, rpc.Internal(err)
		}
		return sub, nil
	})

	rt.adminWrite(reg, "submissions.delete", func(ctx context.Context, call *rpc.Call) (any, error) {
		id, err := bindID(call)
		if err != nil {
			return nil, err
		}
		if err := rt.queries.DeleteSubmission(ctx, id); err != nil {
			return nil, rpc.Internal(err)
		}
		return success, nil
	})
}

func (rt *Router) createSubmission(ctx context.Context, call *rpc.Call) (any, error) {
	if rt.limiter != nil && call.Request != nil && !rt.limiter.Allow(call.Request) {
		return nil, rpc.TooManyRequests()
	}

	var in createSubmissionInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	params, err := in.validate()
	if err != nil {
		return nil, err
	}

	now := rt.now()
	params.Status = model.StatusDraft
	params.CreatedAt = now
	params.UpdatedAt = now

	sub, err := rt.queries.CreateSubmission(ctx, params)
	if err != nil {
		return nil, rpc.Internal(err)
	}
	rt.logger.InfoContext(ctx, "submission received", "submission_id", sub.ID, "content_type", sub.ContentType)
	return sub, nil
}

func (in createSubmissionInput) validate() (store.CreateSubmissionParams, error) {
	var p store.CreateSubmissionParams
	var err error

	if p.SubmitterName, err = requiredText(in.SubmitterName, "submitterName", maxSubmitterField); err != nil {
		return p, err
	}
	if p.SubmitterContact, err = requiredText(in.SubmitterContact, "submitterContact", maxSubmitterField); err != nil {
		return p, err
	}
	if !model.IsValidSubmissionType(in.ContentType) {
		return p, rpc.BadField("contentType", "must be one of "+strings.Join(model.SubmissionTypes, ", "))
	}
	p.ContentType = in.ContentType

	texts := []struct {
		dst   **string
		src   *string
		field string
		limit int
	}{
		{&p.TitleEn, in.TitleEn, "titleEn", maxSubmissionTitle},
		{&p.TitleAr, in.TitleAr, "titleAr", maxSubmissionTitle},
		{&p.DescriptionEn, in.DescriptionEn, "descriptionEn", maxSubmissionText},
		{&p.DescriptionAr, in.DescriptionAr, "descriptionAr", maxSubmissionText},
		{&p.DateText, in.DateText, "dateText", maxSubmitterField},
		{&p.PlaceText, in.PlaceText, "placeText", maxSubmitterField},
	}
	for _, t := range texts {
		if *t.dst, err = optionalText(t.src, t.field, t.limit); err != nil {
			return p, err
		}
	}
	if len(in.FileURLs) > maxSubmissionFiles {
		return p, rpc.BadField("fileUrls", "too many files")
	}
	p.FileURLs = make([]string, 0, len(in.FileURLs))
	for _, u := range in.FileURLs {
		u = strings.TrimSpace(u)
		if !isFileURL(u) {
			return p, rpc.BadField("fileUrls", "must contain uploaded file URLs")
		}
		p.FileURLs = append(p.FileURLs, u)
	}

	p.PermissionGranted = in.PermissionGranted
	return p, nil
}

func requiredText(s, field string, limit int) (string, error) {
	s = util.NormalizeText(s)
	switch {
	case s == "":
		return "", rpc.BadField(field, "is required")
	case utf8.RuneCountInString(s) > limit:
		return "", rpc.BadField(field, "is too long")
	}
	return s, nil
}

// optionalText trims and normalizes s. Blank values become nil.
func optionalText(s *string, field string, limit int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := util.NormalizeText(*s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > limit {
		return nil, rpc.BadField(field, "is too long")
	}
	return &v, nil
}

func isFileURL(u string) bool {
	if u == "" || len(u) > maxFileURL {
		return false
	}
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") ||
		(strings.HasPrefix(u, "/uploads/") && !strings.Contains(u, ".."))
}
