// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import "errors"

var (
	// ErrInvalidValue is returned when a value cannot be encoded for the declared field type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnsupportedFieldType is returned for field types outside the supported set.
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	// ErrInvalidOperator is returned when a search operator is not supported.
	ErrInvalidOperator = errors.New("invalid operator")
	// ErrMissingValue is returned when a search operator requires a value and none was given.
	ErrMissingValue = errors.New("value is required")
	// ErrInvalidLabelID is returned when a label identifier cannot be parsed.
	ErrInvalidLabelID = errors.New("invalid label id")
	// ErrInvalidField is returned when a field definition cannot be built.
	ErrInvalidField = errors.New("invalid field definition")
	// ErrInvalidRole is returned for permission roles outside the supported set.
	ErrInvalidRole = errors.New("invalid role")
)
