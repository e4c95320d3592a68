// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import "fmt"

// FieldType is the declared type of a label field.
type FieldType string

const (
	Text      FieldType = "TEXT"
	LongText  FieldType = "LONG_TEXT"
	Integer   FieldType = "INTEGER"
	Date      FieldType = "DATE"
	User      FieldType = "USER"
	Selection FieldType = "SELECTION"
)

// FieldTypes lists every supported field type in declaration order.
var FieldTypes = []FieldType{Text, LongText, Integer, Date, User, Selection}

var (
	nullOperators       = []string{OpIsNull, OpIsNotNull}
	comparisonOperators = []string{OpEqual, OpNotEqual, OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual}

	operatorsByType = map[FieldType][]string{
		Text:      append(append([]string{}, nullOperators...), OpEqual, OpContains, OpStartsWith),
		LongText:  append(append([]string{}, nullOperators...), OpContains),
		Integer:   append(append([]string{}, nullOperators...), comparisonOperators...),
		Date:      append(append([]string{}, nullOperators...), comparisonOperators...),
		User:      append(append([]string{}, nullOperators...), OpEqual, OpNotEqual),
		Selection: append(append([]string{}, nullOperators...), OpEqual, OpNotEqual),
	}
)

// ParseFieldType matches name against the supported field types. The match is case sensitive.
func ParseFieldType(name string) (FieldType, error) {
	fieldType := FieldType(name)
	if !fieldType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFieldType, name)
	}

	return fieldType, nil
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	_, ok := operatorsByType[t]
	return ok
}

// Operators returns the search operators that can be used on fields of type t.
// Unsupported types have no operators.
func (t FieldType) Operators() []string {
	return append([]string(nil), operatorsByType[t]...)
}

func (t FieldType) String() string {
	return string(t)
}
