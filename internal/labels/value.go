// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const minDateLength = len(time.DateOnly)

// UserRef references a user by email address.
type UserRef struct {
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// SelectionRef references one option of a selection field.
type SelectionRef struct {
	ValueID     string `json:"valueId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// WireValue is the value of a single field as exchanged with the remote service.
// At most one payload is set and it matches Type. The zero value is an unset field.
type WireValue struct {
	Type      FieldType
	Text      *string
	Integer   *int64
	Date      *string
	User      *UserRef
	Selection *SelectionRef
}

// IsSet reports whether w carries a payload.
func (w WireValue) IsSet() bool {
	return w.Text != nil || w.Integer != nil || w.Date != nil || w.User != nil || w.Selection != nil
}

// FieldModification is one change to a field of a label applied on a file.
// When Unset is true Value is ignored and the field is cleared.
type FieldModification struct {
	FieldID string
	Value   WireValue
	Unset   bool
}

type encodeOptions struct {
	strictDates bool
}

// EncodeOption customizes Encode.
type EncodeOption func(*encodeOptions)

// WithStrictDates requires DATE values to start with a real YYYY-MM-DD calendar date
// instead of only checking their length.
func WithStrictDates() EncodeOption {
	return func(o *encodeOptions) {
		o.strictDates = true
	}
}

// Encode converts raw into the wire representation expected by fieldType.
func Encode(fieldType FieldType, raw any, opts ...EncodeOption) (WireValue, error) {
	options := encodeOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	switch fieldType {
	case Text, LongText:
		text := stringify(raw)
		return WireValue{Type: fieldType, Text: &text}, nil
	case Integer:
		value, err := parseInteger(raw)
		if err != nil {
			return WireValue{}, err
		}
		return WireValue{Type: fieldType, Integer: &value}, nil
	case Date:
		date := stringify(raw)
		if len(date) < minDateLength {
			return WireValue{}, fmt.Errorf("%w: date %q must be at least %d characters", ErrInvalidValue, date, minDateLength)
		}
		if options.strictDates {
			if _, err := time.Parse(time.DateOnly, date[:minDateLength]); err != nil {
				return WireValue{}, fmt.Errorf("%w: date %q is not a calendar date", ErrInvalidValue, date)
			}
		}
		return WireValue{Type: fieldType, Date: &date}, nil
	case User:
		user, err := userRef(raw)
		if err != nil {
			return WireValue{}, err
		}
		return WireValue{Type: fieldType, User: &user}, nil
	case Selection:
		selection, err := selectionRef(raw)
		if err != nil {
			return WireValue{}, err
		}
		return WireValue{Type: fieldType, Selection: &selection}, nil
	default:
		return WireValue{}, fmt.Errorf("%w: %q", ErrUnsupportedFieldType, fieldType)
	}
}

// Decode extracts the logical value of w for fieldType. Missing payloads decode to
// the empty string, or to zero for INTEGER fields. Unsupported types decode to nil.
func Decode(fieldType FieldType, w WireValue) any {
	switch fieldType {
	case Text, LongText:
		if w.Text != nil {
			return *w.Text
		}
		return ""
	case Integer:
		if w.Integer != nil {
			return *w.Integer
		}
		return int64(0)
	case Date:
		if w.Date != nil {
			return *w.Date
		}
		return ""
	case User:
		if w.User == nil {
			return ""
		}
		if w.User.EmailAddress != "" {
			return w.User.EmailAddress
		}
		return w.User.DisplayName
	case Selection:
		if w.Selection == nil {
			return ""
		}
		if w.Selection.DisplayName != "" {
			return w.Selection.DisplayName
		}
		return w.Selection.ValueID
	default:
		return nil
	}
}

func stringify(raw any) string {
	switch value := raw.(type) {
	case nil:
		return ""
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

func parseInteger(raw any) (int64, error) {
	switch value := raw.(type) {
	case int:
		return int64(value), nil
	case int8:
		return int64(value), nil
	case int16:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	case uint8:
		return int64(value), nil
	case uint16:
		return int64(value), nil
	case uint32:
		return int64(value), nil
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit
		if math.IsNaN(value) || value != math.Trunc(value) || value >= math.MaxInt64 || value < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidValue, value)
		}
		return int64(value), nil
	}

	text := strings.TrimSpace(stringify(raw))
	parsed, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidValue, text)
	}

	return parsed, nil
}

func userRef(raw any) (UserRef, error) {
	switch value := raw.(type) {
	case UserRef:
		return value, nil
	case *UserRef:
		if value != nil {
			return *value, nil
		}
		return UserRef{}, fmt.Errorf("%w: empty user", ErrInvalidValue)
	case map[string]any:
		email, ok := value["emailAddress"].(string)
		if !ok {
			return UserRef{}, fmt.Errorf("%w: user record without emailAddress", ErrInvalidValue)
		}
		name, _ := value["displayName"].(string)
		return UserRef{EmailAddress: email, DisplayName: name}, nil
	case map[string]string:
		email, ok := value["emailAddress"]
		if !ok {
			return UserRef{}, fmt.Errorf("%w: user record without emailAddress", ErrInvalidValue)
		}
		return UserRef{EmailAddress: email, DisplayName: value["displayName"]}, nil
	default:
		return UserRef{EmailAddress: stringify(raw)}, nil
	}
}

func selectionRef(raw any) (SelectionRef, error) {
	switch value := raw.(type) {
	case SelectionRef:
		return value, nil
	case *SelectionRef:
		if value != nil {
			return *value, nil
		}
		return SelectionRef{}, fmt.Errorf("%w: empty selection", ErrInvalidValue)
	case map[string]any:
		id, ok := value["valueId"].(string)
		if !ok {
			return SelectionRef{}, fmt.Errorf("%w: selection record without valueId", ErrInvalidValue)
		}
		name, _ := value["displayName"].(string)
		return SelectionRef{ValueID: id, DisplayName: name}, nil
	case map[string]string:
		id, ok := value["valueId"]
		if !ok {
			return SelectionRef{}, fmt.Errorf("%w: selection record without valueId", ErrInvalidValue)
		}
		return SelectionRef{ValueID: id, DisplayName: value["displayName"]}, nil
	default:
		return SelectionRef{ValueID: stringify(raw)}, nil
	}
}
