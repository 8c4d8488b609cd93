/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for the caller. Every error that leaves the core carries one.
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeNotFound           Code = "NOT_FOUND"           // Unknown user, message or connection. Nothing to act on
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"    // Self messaging, empty content, malformed pagination
	CodeUnauthorized       Code = "UNAUTHORIZED"        // Caller is not allowed to act on the resource
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE" // A commit failed, nothing is retried inside the core
)

// AppError is the error type returned by services and repositories
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is lets errors.Is match two AppErrors sharing code and message, so that sentinels keep working after wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func InvalidArgument(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func Unauthorized(msg string) error {
	return New(CodeUnauthorized, msg)
}

func Persistence(msg string, cause error) error {
	return Wrap(CodePersistenceFailure, msg, cause)
}

// CodeOf returns the code of the first AppError found in err's chain, CodeUnknown otherwise
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// HTTPStatus maps the error's code onto the status a handler should answer with
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
