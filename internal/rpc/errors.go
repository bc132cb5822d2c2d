// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable failure class sent to clients.
type Code string

// Failure codes.
const (
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
)

// InternalMessage is the only message clients see for internal failures.
const InternalMessage = "An internal error occurred"

// HTTPStatus returns the HTTP status used when c is the outcome of a
// single call.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed procedure failure.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Field names the offending input field of a BAD_REQUEST, if any.
	Field string `json:"field,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of an internal failure.
func (e *Error) Unwrap() error {
	return e.cause
}

// Unauthenticated reports a missing principal.
func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "Please login to continue"}
}

// Forbidden reports a principal lacking the required role.
func Forbidden() *Error {
	return &Error{Code: CodeForbidden, Message: "You do not have permission to perform this action"}
}

// BadRequest reports invalid input that cannot be pinned to one field.
func BadRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message}
}

// BadField reports invalid input in field.
func BadField(field, message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Field: field}
}

// NotFound reports an unknown procedure or resource.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// TooManyRequests reports a rate limited caller.
func TooManyRequests() *Error {
	return &Error{Code: CodeTooManyRequests, Message: "Too many requests. Please wait a moment and try again."}
}

// Internal wraps cause into an internal failure with the fixed message.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: InternalMessage, cause: cause}
}

// AsError converts any error into an *Error. Errors that are not already
// typed become internal failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr
	}
	return Internal(err)
}
