// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestEncode(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fieldType     FieldType
		raw           any
		options       []EncodeOption
		expected      WireValue
		expectedError error
	}{
		"text value": {
			fieldType: Text,
			raw:       "Confidential",
			expected:  WireValue{Type: Text, Text: ptr("Confidential")},
		},
		"long text coerces non string values": {
			fieldType: LongText,
			raw:       12,
			expected:  WireValue{Type: LongText, Text: ptr("12")},
		},
		"nil text becomes empty string": {
			fieldType: Text,
			raw:       nil,
			expected:  WireValue{Type: Text, Text: ptr("")},
		},
		"integer from string": {
			fieldType: Integer,
			raw:       "42",
			expected:  WireValue{Type: Integer, Integer: ptr(int64(42))},
		},
		"integer from padded negative string": {
			fieldType: Integer,
			raw:       " -7 ",
			expected:  WireValue{Type: Integer, Integer: ptr(int64(-7))},
		},
		"integer from int": {
			fieldType: Integer,
			raw:       3,
			expected:  WireValue{Type: Integer, Integer: ptr(int64(3))},
		},
		"integer from whole float": {
			fieldType: Integer,
			raw:       float64(10),
			expected:  WireValue{Type: Integer, Integer: ptr(int64(10))},
		},
		"integer rejects letters": {
			fieldType:     Integer,
			raw:           "abc",
			expectedError: ErrInvalidValue,
		},
		"integer rejects decimal string": {
			fieldType:     Integer,
			raw:           "4.2",
			expectedError: ErrInvalidValue,
		},
		"integer rejects fractional float": {
			fieldType:     Integer,
			raw:           4.2,
			expectedError: ErrInvalidValue,
		},
		"integer rejects float above int64 range": {
			fieldType:     Integer,
			raw:           float64(math.MaxInt64),
			expectedError: ErrInvalidValue,
		},
		"integer rejects not a number": {
			fieldType:     Integer,
			raw:           math.NaN(),
			expectedError: ErrInvalidValue,
		},
		"integer rejects infinity": {
			fieldType:     Integer,
			raw:           math.Inf(-1),
			expectedError: ErrInvalidValue,
		},
		"integer from smallest int64 float": {
			fieldType: Integer,
			raw:       float64(math.MinInt64),
			expected:  WireValue{Type: Integer, Integer: ptr(int64(math.MinInt64))},
		},
		"date with ten characters": {
			fieldType: Date,
			raw:       "2024-01-01",
			expected:  WireValue{Type: Date, Date: ptr("2024-01-01")},
		},
		"date is passed through unchanged": {
			fieldType: Date,
			raw:       "2024-01-01T10:00:00Z",
			expected:  WireValue{Type: Date, Date: ptr("2024-01-01T10:00:00Z")},
		},
		"short date is rejected": {
			fieldType:     Date,
			raw:           "2024-1-1",
			expectedError: ErrInvalidValue,
		},
		"nine character date is rejected": {
			fieldType:     Date,
			raw:           "2024-01-1",
			expectedError: ErrInvalidValue,
		},
		"impossible date passes the length check": {
			fieldType: Date,
			raw:       "9999-99-99",
			expected:  WireValue{Type: Date, Date: ptr("9999-99-99")},
		},
		"impossible date fails in strict mode": {
			fieldType:     Date,
			raw:           "9999-99-99",
			options:       []EncodeOption{WithStrictDates()},
			expectedError: ErrInvalidValue,
		},
		"valid date in strict mode": {
			fieldType: Date,
			raw:       "2024-02-29",
			options:   []EncodeOption{WithStrictDates()},
			expected:  WireValue{Type: Date, Date: ptr("2024-02-29")},
		},
		"bare user reference": {
			fieldType: User,
			raw:       "jane@example.com",
			expected:  WireValue{Type: User, User: &UserRef{EmailAddress: "jane@example.com"}},
		},
		"user record is kept": {
			fieldType: User,
			raw:       map[string]any{"emailAddress": "jane@example.com", "displayName": "Jane"},
			expected:  WireValue{Type: User, User: &UserRef{EmailAddress: "jane@example.com", DisplayName: "Jane"}},
		},
		"user struct is kept": {
			fieldType: User,
			raw:       UserRef{EmailAddress: "joe@example.com"},
			expected:  WireValue{Type: User, User: &UserRef{EmailAddress: "joe@example.com"}},
		},
		"user record without address": {
			fieldType:     User,
			raw:           map[string]any{"displayName": "Jane"},
			expectedError: ErrInvalidValue,
		},
		"bare selection id": {
			fieldType: Selection,
			raw:       "options/confidential",
			expected:  WireValue{Type: Selection, Selection: &SelectionRef{ValueID: "options/confidential"}},
		},
		"selection record is kept": {
			fieldType: Selection,
			raw:       map[string]string{"valueId": "opt1", "displayName": "Public"},
			expected:  WireValue{Type: Selection, Selection: &SelectionRef{ValueID: "opt1", DisplayName: "Public"}},
		},
		"unknown type": {
			fieldType:     FieldType("BOOLEAN"),
			raw:           "true",
			expectedError: ErrUnsupportedFieldType,
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			value, err := Encode(test.fieldType, test.raw, test.options...)
			if test.expectedError != nil {
				require.ErrorIs(t, err, test.expectedError)
				assert.False(t, value.IsSet())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected, value)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fieldType FieldType
		value     WireValue
		expected  any
	}{
		"missing text":      {fieldType: Text, expected: ""},
		"missing integer":   {fieldType: Integer, expected: int64(0)},
		"missing date":      {fieldType: Date, expected: ""},
		"missing user":      {fieldType: User, expected: ""},
		"missing selection": {fieldType: Selection, expected: ""},
		"unknown type":      {fieldType: FieldType("OTHER"), value: WireValue{Text: ptr("x")}, expected: nil},
		"selection prefers name": {
			fieldType: Selection,
			value:     WireValue{Selection: &SelectionRef{ValueID: "opt1", DisplayName: "Public"}},
			expected:  "Public",
		},
		"selection falls back to id": {
			fieldType: Selection,
			value:     WireValue{Selection: &SelectionRef{ValueID: "opt1"}},
			expected:  "opt1",
		},
		"user prefers address": {
			fieldType: User,
			value:     WireValue{User: &UserRef{EmailAddress: "a@example.com", DisplayName: "A"}},
			expected:  "a@example.com",
		},
		"user falls back to name": {
			fieldType: User,
			value:     WireValue{User: &UserRef{DisplayName: "A"}},
			expected:  "A",
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, Decode(test.fieldType, test.value))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fieldType FieldType
		raw       any
		expected  any
	}{
		"text":      {fieldType: Text, raw: "hello", expected: "hello"},
		"long text": {fieldType: LongText, raw: "a longer\nparagraph", expected: "a longer\nparagraph"},
		"integer":   {fieldType: Integer, raw: "42", expected: int64(42)},
		"date":      {fieldType: Date, raw: "2024-01-01", expected: "2024-01-01"},
		"user":      {fieldType: User, raw: "jane@example.com", expected: "jane@example.com"},
		"selection": {fieldType: Selection, raw: "options/public", expected: "options/public"},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			encoded, err := Encode(test.fieldType, test.raw)
			require.NoError(t, err)
			assert.Equal(t, test.expected, Decode(test.fieldType, encoded))
		})
	}
}

func TestFieldTypes(t *testing.T) {
	t.Parallel()

	for _, fieldType := range FieldTypes {
		parsed, err := ParseFieldType(fieldType.String())
		require.NoError(t, err)
		assert.Equal(t, fieldType, parsed)
		assert.Contains(t, parsed.Operators(), OpIsNull)
	}

	_, err := ParseFieldType("text")
	require.ErrorIs(t, err, ErrUnsupportedFieldType)

	assert.Equal(t, []string{OpIsNull, OpIsNotNull, OpContains}, LongText.Operators())
	assert.Equal(t, []string{OpIsNull, OpIsNotNull, OpEqual, OpNotEqual}, Selection.Operators())
	assert.Contains(t, Integer.Operators(), OpGreaterOrEqual)
	assert.NotContains(t, Text.Operators(), OpLess)
	assert.Empty(t, FieldType("OTHER").Operators())
}

func TestFormatForDisplay(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fieldType FieldType
		value     WireValue
		expected  string
	}{
		"unset value": {
			fieldType: Text,
			expected:  NotSet,
		},
		"iso date": {
			fieldType: Date,
			value:     WireValue{Date: ptr("2024-03-15")},
			expected:  "03/15/2024",
		},
		"non iso date": {
			fieldType: Date,
			value:     WireValue{Date: ptr("15.03.2024")},
			expected:  "15.03.2024",
		},
		"user with name and email": {
			fieldType: User,
			value:     WireValue{User: &UserRef{EmailAddress: "jane@example.com", DisplayName: "Jane"}},
			expected:  "Jane (jane@example.com)",
		},
		"user with email only": {
			fieldType: User,
			value:     WireValue{User: &UserRef{EmailAddress: "jane@example.com"}},
			expected:  "jane@example.com",
		},
		"selection": {
			fieldType: Selection,
			value:     WireValue{Selection: &SelectionRef{ValueID: "opt1", DisplayName: "Restricted"}},
			expected:  "Restricted",
		},
		"integer": {
			fieldType: Integer,
			value:     WireValue{Integer: ptr(int64(-3))},
			expected:  "-3",
		},
		"unknown type": {
			fieldType: FieldType("OTHER"),
			value:     WireValue{Text: ptr("raw")},
			expected:  "raw",
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, FormatForDisplay(test.fieldType, test.value))
		})
	}
}
