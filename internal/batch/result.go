// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"fmt"
	"time"
)

// Status is the final state of one operation in a run.
type Status string

const (
	// StatusSucceeded marks operations accepted by the remote service.
	StatusSucceeded Status = "succeeded"
	// StatusFailed marks operations rejected for good: invalid values, missing labels or
	// fields, missing permissions.
	StatusFailed Status = "failed"
	// StatusSkipped marks operations still failing when the retries ran out, and operations
	// left undecided by a cancelled run.
	StatusSkipped Status = "skipped"
	// StatusInvalid marks operations without a file or label, which were never submitted.
	StatusInvalid Status = "invalid"
)

// Outcome records what happened to one submitted operation.
type Outcome struct {
	Operation Operation
	FileID    string
	LabelID   string
	Status    Status
	Err       error
}

// Success reports whether the operation was applied.
func (o Outcome) Success() bool {
	return o.Status == StatusSucceeded
}

// BatchResult aggregates the outcome of a run. Outcomes follow the order of the
// submitted operations and Total == Successful+Failed+Skipped+Invalid.
type BatchResult struct {
	RunID      string
	Total      int
	Successful int
	Failed     int
	Skipped    int
	Invalid    int
	Passes     int
	Duration   time.Duration
	Outcomes   []Outcome
	Errors     []string
}

// Summary returns a one line description of r.
func (r *BatchResult) Summary() string {
	return fmt.Sprintf("processed %d operations: %d successful, %d failed, %d skipped, %d invalid",
		r.Total, r.Successful, r.Failed, r.Skipped, r.Invalid)
}

// FailedOutcomes returns the outcomes that did not succeed.
func (r *BatchResult) FailedOutcomes() []Outcome {
	failed := make([]Outcome, 0, r.Failed+r.Skipped+r.Invalid)
	for _, outcome := range r.Outcomes {
		if !outcome.Success() {
			failed = append(failed, outcome)
		}
	}
	return failed
}
