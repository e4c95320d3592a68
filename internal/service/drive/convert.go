// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"fmt"
	"strconv"
	"strings"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/drivelabels/v2"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

// valueType values used by the files API for applied fields.
const (
	valueTypeText      = "text"
	valueTypeInteger   = "integer"
	valueTypeDate      = "dateString"
	valueTypeUser      = "user"
	valueTypeSelection = "selection"
)

func toSchema(label *drivelabels.GoogleAppsDriveLabelsV2Label) *labels.Schema {
	schema := &labels.Schema{
		ID:         label.Id,
		RevisionID: label.RevisionId,
		LabelType:  labels.LabelType(label.LabelType),
		Fields:     make([]labels.FieldDefinition, 0, len(label.Fields)),
	}
	if schema.ID == "" {
		if id, err := labels.ParseLabelID(label.Name); err == nil {
			schema.ID = id.Base
		}
	}
	if label.Properties != nil {
		schema.Title = label.Properties.Title
		schema.Description = label.Properties.Description
	}
	if label.Lifecycle != nil {
		schema.State = labels.State(label.Lifecycle.State)
		schema.HasUnpublishedChanges = label.Lifecycle.HasUnpublishedChanges
	}

	for _, field := range label.Fields {
		if field != nil {
			schema.Fields = append(schema.Fields, toFieldDefinition(field))
		}
	}

	return schema
}

// toFieldDefinition leaves Type empty for field kinds it does not know, so that
// encoding values for them fails with labels.ErrUnsupportedFieldType.
func toFieldDefinition(field *drivelabels.GoogleAppsDriveLabelsV2Field) labels.FieldDefinition {
	definition := labels.FieldDefinition{ID: field.Id}
	if field.Properties != nil {
		definition.Name = field.Properties.DisplayName
		definition.Required = field.Properties.Required
	}

	switch {
	case field.TextOptions != nil:
		definition.Type = labels.Text
	case field.LongTextOptions != nil:
		definition.Type = labels.LongText
	case field.IntegerOptions != nil:
		definition.Type = labels.Integer
	case field.DateOptions != nil:
		definition.Type = labels.Date
	case field.UserOptions != nil:
		definition.Type = labels.User
		if field.UserOptions.ListOptions != nil {
			definition.MaxEntries = field.UserOptions.ListOptions.MaxEntries
		}
	case field.SelectionOptions != nil:
		definition.Type = labels.Selection
		if field.SelectionOptions.ListOptions != nil {
			definition.MaxEntries = field.SelectionOptions.ListOptions.MaxEntries
		}
		for _, choice := range field.SelectionOptions.Choices {
			if choice == nil {
				continue
			}
			name := choice.Id
			if choice.Properties != nil && choice.Properties.DisplayName != "" {
				name = choice.Properties.DisplayName
			}
			definition.Options = append(definition.Options, labels.Choice{ID: choice.Id, Name: name})
		}
	}

	return definition
}

// fromFieldDefinition builds the API field created for definition. Ids are assigned
// by the service.
func fromFieldDefinition(definition labels.FieldDefinition) *drivelabels.GoogleAppsDriveLabelsV2Field {
	field := &drivelabels.GoogleAppsDriveLabelsV2Field{
		Properties: &drivelabels.GoogleAppsDriveLabelsV2FieldProperties{
			DisplayName: definition.Name,
			Required:    definition.Required,
		},
	}

	var listOptions *drivelabels.GoogleAppsDriveLabelsV2FieldListOptions
	if definition.MaxEntries > 1 {
		listOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldListOptions{MaxEntries: definition.MaxEntries}
	}

	switch definition.Type {
	case labels.Text:
		field.TextOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldTextOptions{}
	case labels.LongText:
		field.LongTextOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldLongTextOptions{}
	case labels.Integer:
		field.IntegerOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldIntegerOptions{}
	case labels.Date:
		field.DateOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldDateOptions{}
	case labels.User:
		field.UserOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldUserOptions{ListOptions: listOptions}
	case labels.Selection:
		choices := make([]*drivelabels.GoogleAppsDriveLabelsV2FieldSelectionOptionsChoice, 0, len(definition.Options))
		for _, option := range definition.Options {
			choices = append(choices, newChoice(option.Name))
		}
		field.SelectionOptions = &drivelabels.GoogleAppsDriveLabelsV2FieldSelectionOptions{
			Choices:     choices,
			ListOptions: listOptions,
		}
	}

	return field
}

func newChoice(name string) *drivelabels.GoogleAppsDriveLabelsV2FieldSelectionOptionsChoice {
	return &drivelabels.GoogleAppsDriveLabelsV2FieldSelectionOptionsChoice{
		Properties: &drivelabels.GoogleAppsDriveLabelsV2FieldSelectionOptionsChoiceProperties{
			DisplayName: name,
		},
	}
}

func toLabelFieldModification(modification labels.FieldModification) *drivev3.LabelFieldModification {
	field := &drivev3.LabelFieldModification{FieldId: modification.FieldID}
	if modification.Unset {
		field.UnsetValues = true
		return field
	}

	value := modification.Value
	switch {
	case value.Text != nil:
		field.SetTextValues = []string{*value.Text}
	case value.Integer != nil:
		field.SetIntegerValues = []int64{*value.Integer}
	case value.Date != nil:
		field.SetDateValues = []string{*value.Date}
	case value.User != nil:
		field.SetUserValues = []string{value.User.EmailAddress}
	case value.Selection != nil:
		field.SetSelectionValues = []string{value.Selection.ValueID}
	default:
		field.UnsetValues = true
	}

	return field
}

func toAppliedLabel(label *drivev3.Label) labels.AppliedLabel {
	applied := labels.AppliedLabel{
		LabelID:    label.Id,
		RevisionID: label.RevisionId,
		Fields:     make(map[string]labels.WireValue, len(label.Fields)),
	}

	for id, field := range label.Fields {
		if field.Id != "" {
			id = field.Id
		}
		if value, ok := toWireValue(field); ok {
			applied.Fields[id] = value
		}
	}

	return applied
}

// toWireValue keeps the first value of a field; list fields are not modeled.
func toWireValue(field drivev3.LabelField) (labels.WireValue, bool) {
	switch {
	case field.ValueType == valueTypeText || len(field.Text) > 0:
		if len(field.Text) == 0 {
			return labels.WireValue{}, false
		}
		text := field.Text[0]
		return labels.WireValue{Type: labels.Text, Text: &text}, true
	case field.ValueType == valueTypeInteger || len(field.Integer) > 0:
		if len(field.Integer) == 0 {
			return labels.WireValue{}, false
		}
		integer := field.Integer[0]
		return labels.WireValue{Type: labels.Integer, Integer: &integer}, true
	case field.ValueType == valueTypeDate || len(field.DateString) > 0:
		if len(field.DateString) == 0 {
			return labels.WireValue{}, false
		}
		date := field.DateString[0]
		return labels.WireValue{Type: labels.Date, Date: &date}, true
	case field.ValueType == valueTypeUser || len(field.User) > 0:
		if len(field.User) == 0 || field.User[0] == nil {
			return labels.WireValue{}, false
		}
		user := labels.UserRef{EmailAddress: field.User[0].EmailAddress, DisplayName: field.User[0].DisplayName}
		return labels.WireValue{Type: labels.User, User: &user}, true
	case field.ValueType == valueTypeSelection || len(field.Selection) > 0:
		if len(field.Selection) == 0 {
			return labels.WireValue{}, false
		}
		selection := labels.SelectionRef{ValueID: field.Selection[0]}
		return labels.WireValue{Type: labels.Selection, Selection: &selection}, true
	default:
		return labels.WireValue{}, false
	}
}

func trimFieldID(id string) string {
	return strings.TrimPrefix(id, "fields/")
}

// toColor parses a #RRGGBB color into the 0 to 1 channels used by the labels API.
func toColor(hex string) (*drivelabels.GoogleTypeColor, error) {
	digits := strings.TrimPrefix(hex, "#")
	if len(digits) != 6 {
		return nil, fmt.Errorf("%w: color %q must be #RRGGBB", labels.ErrInvalidValue, hex)
	}
	rgb, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: color %q must be #RRGGBB", labels.ErrInvalidValue, hex)
	}

	return &drivelabels.GoogleTypeColor{
		Red:   float64(rgb>>16&0xff) / 255,
		Green: float64(rgb>>8&0xff) / 255,
		Blue:  float64(rgb&0xff) / 255,
	}, nil
}

func toPermission(permission *drivelabels.GoogleAppsDriveLabelsV2LabelPermission) labels.Permission {
	return labels.Permission{
		Name:     permission.Name,
		Email:    permission.Email,
		Person:   permission.Person,
		Group:    permission.Group,
		Audience: permission.Audience,
		Role:     labels.Role(permission.Role),
	}
}
