// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvio

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader reports an empty input.
	ErrNoHeader = errors.New("csv has no header")
	// ErrMissingColumns reports a header without the required columns.
	ErrMissingColumns = errors.New("csv is missing required columns")
	// ErrNoRows reports an input without any valid data row.
	ErrNoRows = errors.New("csv has no valid data rows")
)

// ParseError reports a row that cannot be used. Row is the 1-based line number, the
// header being row 1.
type ParseError struct {
	Row int
	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.err)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

func rowError(row int, format string, args ...any) error {
	return &ParseError{Row: row, err: fmt.Errorf(format, args...)}
}
