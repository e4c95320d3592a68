// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"context"
	"time"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

// LabelCatalog returns label schemas. Errors should wrap ErrNotFound, ErrPermissionDenied,
// ErrRateLimited or ErrService.
type LabelCatalog interface {
	GetLabel(ctx context.Context, labelID string) (*labels.Schema, error)
}

// FileLabelService changes the labels applied on files. Errors should wrap ErrRateLimited,
// ErrPermissionDenied, ErrNotFound or ErrService.
type FileLabelService interface {
	ModifyLabels(ctx context.Context, fileID, labelID string, modifications []labels.FieldModification) error
	RemoveLabel(ctx context.Context, fileID, labelID string) error
}

// ProgressReporter receives progress updates. Update must not block.
type ProgressReporter interface {
	Update(current, total int, message string)
}

// AuditSink stores one record per completed run. Its errors never fail the run.
type AuditSink interface {
	Record(ctx context.Context, actionType, targetID, description string) error
}

// Sleeper waits between batches and retry passes.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper waits for d or until ctx is cancelled.
var TimerSleeper Sleeper = SleeperFunc(sleep)

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noopProgress struct{}

func (noopProgress) Update(int, int, string) {}

type noopAudit struct{}

func (noopAudit) Record(context.Context, string, string, string) error { return nil }
