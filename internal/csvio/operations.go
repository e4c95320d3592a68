// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvio

import (
	"errors"
	"io"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

// Columns of a bulk operations file.
const (
	ColumnFileID  = "fileId"
	ColumnLabelID = "labelId"
	ColumnFieldID = "fieldId"
	ColumnValue   = "value"
	ColumnAction  = "action"
)

var operationColumns = []string{ColumnFileID, ColumnLabelID, ColumnFieldID, ColumnValue}

// ReadOperations reads bulk operations from r. Rows that cannot be used are reported as
// *ParseError values joined in the returned error, alongside the operations read from
// the valid rows. Empty rows are ignored. The optional action column selects the kind
// of each operation and defaults to apply; file references may be Drive URLs.
func ReadOperations(r io.Reader) ([]batch.Operation, error) {
	t, err := readTable(r, operationColumns)
	if err != nil {
		return nil, err
	}

	ops := make([]batch.Operation, 0, len(t.rows))
	errs := make([]error, 0)
	for _, row := range t.rows {
		if row.err != nil {
			errs = append(errs, row.err)
			continue
		}
		if row.empty() {
			continue
		}

		op, err := parseOperation(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		errs = append(errs, ErrNoRows)
	}
	return ops, errors.Join(errs...)
}

func parseOperation(row record) (batch.Operation, error) {
	kind, err := batch.ParseKind(row.get(ColumnAction))
	if err != nil {
		return batch.Operation{}, rowError(row.line, "%w", err)
	}

	missing := make([]string, 0)
	for _, column := range []string{ColumnFileID, ColumnLabelID} {
		if row.get(column) == "" {
			missing = append(missing, column)
		}
	}
	if kind != batch.KindRemove && row.get(ColumnFieldID) == "" {
		missing = append(missing, ColumnFieldID)
	}
	if (kind == batch.KindApply || kind == batch.KindUpdate) && row.get(ColumnValue) == "" {
		missing = append(missing, ColumnValue)
	}
	if len(missing) > 0 {
		return batch.Operation{}, rowError(row.line, "missing values for: %s", joinColumns(missing))
	}

	fileID, err := drive.ExtractFileID(row.get(ColumnFileID))
	if err != nil {
		return batch.Operation{}, rowError(row.line, "%w", err)
	}

	op, err := batch.NewOperation(kind, fileID, row.get(ColumnLabelID), row.get(ColumnFieldID), row.get(ColumnValue))
	if err != nil {
		return batch.Operation{}, rowError(row.line, "%w", err)
	}
	return op, nil
}
