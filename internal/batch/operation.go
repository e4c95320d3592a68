// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"fmt"
	"strings"
)

// Kind is the kind of change an Operation requests.
type Kind string

const (
	KindApply  Kind = "apply"
	KindUpdate Kind = "update"
	KindUnset  Kind = "unset"
	KindRemove Kind = "remove"
)

// ParseKind returns the kind named s, case insensitive. An empty string means apply.
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "":
		return KindApply, nil
	case KindApply, KindUpdate, KindUnset, KindRemove:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidOperation, s)
	}
}

// Operation is one requested change of a label on a file.
// FieldID and Value are ignored for remove operations, Value is ignored for unset operations.
type Operation struct {
	Kind    Kind
	FileID  string
	LabelID string
	FieldID string
	Value   any
}

// NewOperation builds a validated Operation.
func NewOperation(kind Kind, fileID, labelID, fieldID string, value any) (Operation, error) {
	op := Operation{
		Kind:    kind,
		FileID:  strings.TrimSpace(fileID),
		LabelID: strings.TrimSpace(labelID),
		FieldID: strings.TrimSpace(fieldID),
		Value:   value,
	}

	switch {
	case op.FileID == "":
		return Operation{}, fmt.Errorf("%w: file id is required", ErrInvalidOperation)
	case op.LabelID == "":
		return Operation{}, fmt.Errorf("%w: label id is required", ErrInvalidOperation)
	}

	switch kind {
	case KindApply, KindUpdate, KindUnset:
		if op.FieldID == "" {
			return Operation{}, fmt.Errorf("%w: field id is required to %s a value", ErrInvalidOperation, kind)
		}
	case KindRemove:
		op.FieldID = ""
		op.Value = nil
	default:
		return Operation{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, kind)
	}

	if kind == KindUnset {
		op.Value = nil
	}

	return op, nil
}

func (o Operation) String() string {
	if o.Kind == KindRemove {
		return fmt.Sprintf("%s %s on %s", o.Kind, o.LabelID, o.FileID)
	}
	return fmt.Sprintf("%s %s.%s on %s", o.Kind, o.LabelID, o.FieldID, o.FileID)
}
