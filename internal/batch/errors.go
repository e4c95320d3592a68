// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"context"
	"errors"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

var (
	// ErrNotFound reports a label or field that does not exist remotely.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited reports a request rejected because too many requests were sent.
	ErrRateLimited = errors.New("rate limited")
	// ErrPermissionDenied reports a request rejected for missing access rights.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrService reports any other failure of the remote service.
	ErrService = errors.New("service error")

	// ErrInvalidOperation reports an operation that cannot be built.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidConfig reports an executor configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid batch configuration")
)

// IsRetryable reports whether an operation failed with err may succeed when submitted again.
// Errors that are not classified are considered generic service errors and are retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied):
		return false
	case errors.Is(err, ErrInvalidOperation):
		return false
	case errors.Is(err, labels.ErrInvalidValue), errors.Is(err, labels.ErrUnsupportedFieldType):
		return false
	default:
		return true
	}
}

// errorKind returns a short stable name for err used in logs and metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
