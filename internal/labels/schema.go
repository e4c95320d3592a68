// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a label.
type State string

const (
	StateDraft     State = "UNPUBLISHED_DRAFT"
	StatePublished State = "PUBLISHED"
	StateDisabled  State = "DISABLED"
	StateDeleted   State = "DELETED"
)

// LabelType tells who manages a label.
type LabelType string

const (
	LabelTypeAdmin  LabelType = "ADMIN"
	LabelTypeShared LabelType = "SHARED"
)

const (
	fieldIDPrefix  = "fields/"
	optionIDPrefix = "options/"
)

// ParseLabelType returns the label type named s, case insensitive.
func ParseLabelType(s string) (LabelType, error) {
	switch labelType := LabelType(strings.ToUpper(s)); labelType {
	case LabelTypeAdmin, LabelTypeShared:
		return labelType, nil
	default:
		return "", fmt.Errorf("invalid label type %q: must be %s or %s", s, LabelTypeAdmin, LabelTypeShared)
	}
}

// Choice is one option of a SELECTION field.
type Choice struct {
	ID   string
	Name string
}

// FieldDefinition describes one field of a label.
type FieldDefinition struct {
	ID         string
	Name       string
	Type       FieldType
	Required   bool
	Options    []Choice
	MaxEntries int64
}

// Schema is a read only copy of a label as returned by the remote service.
type Schema struct {
	ID                    string
	RevisionID            string
	Title                 string
	Description           string
	LabelType             LabelType
	State                 State
	HasUnpublishedChanges bool
	Fields                []FieldDefinition
}

// AppliedLabel is a label as applied on a file, with its field values keyed by field id.
type AppliedLabel struct {
	LabelID    string
	RevisionID string
	Fields     map[string]WireValue
}

// Field returns the field of s identified by id. A "fields/" prefix on either side is ignored.
func (s *Schema) Field(id string) (FieldDefinition, bool) {
	wanted := strings.TrimPrefix(id, fieldIDPrefix)
	for _, field := range s.Fields {
		if strings.TrimPrefix(field.ID, fieldIDPrefix) == wanted {
			return field, true
		}
	}

	return FieldDefinition{}, false
}

// ChoiceID resolves nameOrID to the id of one of the field options. Ids win over
// display names, names are matched case insensitively.
func (f FieldDefinition) ChoiceID(nameOrID string) (string, bool) {
	for _, choice := range f.Options {
		if choice.ID == nameOrID {
			return choice.ID, true
		}
	}

	for _, choice := range f.Options {
		if strings.EqualFold(choice.Name, nameOrID) {
			return choice.ID, true
		}
	}

	return "", false
}

// NewFieldDefinition builds the definition of a new field named name. The field id
// and option ids are derived from the names.
func NewFieldDefinition(name string, fieldType FieldType, required bool, options []string, maxEntries int64) (FieldDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return FieldDefinition{}, fmt.Errorf("%w: name is required", ErrInvalidField)
	}
	if !fieldType.Valid() {
		return FieldDefinition{}, fmt.Errorf("%w: %q", ErrUnsupportedFieldType, fieldType)
	}
	if maxEntries < 0 {
		return FieldDefinition{}, fmt.Errorf("%w: max entries cannot be negative", ErrInvalidField)
	}

	field := FieldDefinition{
		ID:         fieldIDPrefix + slug(name),
		Name:       name,
		Type:       fieldType,
		Required:   required,
		MaxEntries: maxEntries,
	}

	if fieldType != Selection {
		if len(options) > 0 {
			return FieldDefinition{}, fmt.Errorf("%w: options are only allowed on %s fields", ErrInvalidField, Selection)
		}
		return field, nil
	}

	seen := make(map[string]bool, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}

		id := optionIDPrefix + slug(option)
		if seen[id] {
			return FieldDefinition{}, fmt.Errorf("%w: duplicated option %q", ErrInvalidField, option)
		}
		seen[id] = true
		field.Options = append(field.Options, Choice{ID: id, Name: option})
	}

	if len(field.Options) == 0 {
		return FieldDefinition{}, fmt.Errorf("%w: %s fields need at least one option", ErrInvalidField, Selection)
	}

	return field, nil
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
