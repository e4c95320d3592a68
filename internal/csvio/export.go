// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvio

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

var exportHeader = []string{
	"File ID", "File Name", "Label ID", "Label Name",
	"Field ID", "Field Name", "Field Type", "Field Value",
}

// ExportRow is one field value applied on a file.
type ExportRow struct {
	FileID     string
	FileName   string
	LabelID    string
	LabelName  string
	FieldID    string
	FieldName  string
	FieldType  labels.FieldType
	FieldValue string
}

// ExportRows flattens the labels applied on file. Label and field names come from
// schemas, keyed by label id; missing schemas leave names equal to ids.
func ExportRows(file *drive.File, applied []labels.AppliedLabel, schemas map[string]*labels.Schema) []ExportRow {
	rows := make([]ExportRow, 0)
	for _, label := range applied {
		labelName := label.LabelID
		schema := schemas[label.LabelID]
		if schema != nil && schema.Title != "" {
			labelName = schema.Title
		}

		fieldIDs := make([]string, 0, len(label.Fields))
		for fieldID := range label.Fields {
			fieldIDs = append(fieldIDs, fieldID)
		}
		sort.Strings(fieldIDs)

		for _, fieldID := range fieldIDs {
			value := label.Fields[fieldID]
			fieldName, fieldType := fieldID, value.Type
			if schema != nil {
				if field, ok := schema.Field(fieldID); ok {
					fieldName, fieldType = field.Name, field.Type
					if field.Type == labels.Selection && value.Selection != nil && value.Selection.DisplayName == "" {
						resolved := *value.Selection
						for _, choice := range field.Options {
							if choice.ID == resolved.ValueID {
								resolved.DisplayName = choice.Name
							}
						}
						value.Selection = &resolved
					}
				}
			}

			rows = append(rows, ExportRow{
				FileID:     file.ID,
				FileName:   file.Name,
				LabelID:    label.LabelID,
				LabelName:  labelName,
				FieldID:    fieldID,
				FieldName:  fieldName,
				FieldType:  fieldType,
				FieldValue: labels.FormatForDisplay(fieldType, value),
			})
		}
	}
	return rows
}

// WriteLabelExport writes rows to w as CSV, header included.
func WriteLabelExport(w io.Writer, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	for _, row := range rows {
		if err := writer.Write([]string{
			row.FileID, row.FileName, row.LabelID, row.LabelName,
			row.FieldID, row.FieldName, string(row.FieldType), row.FieldValue,
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
