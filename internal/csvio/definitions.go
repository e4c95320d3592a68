// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvio

import (
	"errors"
	"io"
	"strings"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

// Columns of a label definitions file.
const (
	ColumnLabelTitle  = "Label Title"
	ColumnDescription = "Description"
	ColumnFieldName   = "Field Name"
	ColumnFieldType   = "Field Type"
	ColumnRequired    = "Required"
	ColumnOptions     = "Options"

	optionSeparator = "|"
)

var definitionColumns = []string{ColumnLabelTitle, ColumnDescription, ColumnFieldName, ColumnFieldType}

// LabelDefinition is a label to create together with its fields.
type LabelDefinition struct {
	Title       string
	Description string
	Fields      []labels.FieldDefinition
}

// ReadLabelDefinitions reads label definitions from r, one field per row. Rows sharing
// a title describe the same label, whose description is taken from its first row.
// Invalid rows are reported as *ParseError values joined in the returned error.
func ReadLabelDefinitions(r io.Reader) ([]LabelDefinition, error) {
	t, err := readTable(r, definitionColumns)
	if err != nil {
		return nil, err
	}

	definitions := make([]LabelDefinition, 0)
	byTitle := make(map[string]int)
	errs := make([]error, 0)

	for _, row := range t.rows {
		if row.err != nil {
			errs = append(errs, row.err)
			continue
		}
		if row.empty() {
			continue
		}

		title := row.get(ColumnLabelTitle)
		if title == "" {
			errs = append(errs, rowError(row.line, "missing label title"))
			continue
		}

		index, ok := byTitle[title]
		if !ok {
			index = len(definitions)
			byTitle[title] = index
			definitions = append(definitions, LabelDefinition{Title: title, Description: row.get(ColumnDescription)})
		}

		name, typeName := row.get(ColumnFieldName), row.get(ColumnFieldType)
		if name == "" || typeName == "" {
			continue
		}

		field, err := parseField(row, name, typeName)
		if err != nil {
			errs = append(errs, rowError(row.line, "%w", err))
			continue
		}
		definitions[index].Fields = append(definitions[index].Fields, field)
	}

	if len(definitions) == 0 {
		errs = append(errs, ErrNoRows)
	}
	return definitions, errors.Join(errs...)
}

func parseField(row record, name, typeName string) (labels.FieldDefinition, error) {
	fieldType, err := labels.ParseFieldType(strings.ReplaceAll(strings.ToUpper(typeName), " ", "_"))
	if err != nil {
		return labels.FieldDefinition{}, err
	}

	var options []string
	if fieldType == labels.Selection {
		options = strings.Split(row.get(ColumnOptions), optionSeparator)
	}

	return labels.NewFieldDefinition(name, fieldType, parseBool(row.get(ColumnRequired)), options, 0)
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
