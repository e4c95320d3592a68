// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
)

var (
	// ErrInvalidState reports a lifecycle change not allowed by the current label state.
	ErrInvalidState = errors.New("invalid label state")
	// ErrInvalidFileReference reports a string that is neither a file id nor a Drive URL.
	ErrInvalidFileReference = errors.New("invalid file reference")
)

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// DriveError wraps errors returned by the Google APIs.
type DriveError struct {
	Op  string
	err error
}

func (e *DriveError) Error() string {
	return "drive: " + e.Op + ": " + e.err.Error()
}

func (e *DriveError) Unwrap() error {
	return e.err
}

// classify maps err onto the batch sentinel errors and wraps it in a *DriveError.
// Context errors are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &DriveError{Op: op, err: fmt.Errorf("%w: %w", batch.ErrService, err)}
	}

	message := apiErr.Message
	if message == "" {
		message = http.StatusText(apiErr.Code)
	}

	var sentinel error
	switch apiErr.Code {
	case http.StatusTooManyRequests:
		sentinel = batch.ErrRateLimited
	case http.StatusUnauthorized:
		sentinel = batch.ErrPermissionDenied
	case http.StatusForbidden:
		sentinel = batch.ErrPermissionDenied
		for _, item := range apiErr.Errors {
			if rateLimitReasons[item.Reason] {
				sentinel = batch.ErrRateLimited
				break
			}
		}
	case http.StatusNotFound:
		sentinel = batch.ErrNotFound
	default:
		sentinel = batch.ErrService
	}

	return &DriveError{Op: op, err: fmt.Errorf("%w: %s (%d)", sentinel, message, apiErr.Code)}
}
