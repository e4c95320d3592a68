// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"fmt"
	"strconv"
	"strings"
)

// NotSet is shown for fields without a value.
const NotSet = "Not set"

// FormatForDisplay renders w for a human reader.
func FormatForDisplay(fieldType FieldType, w WireValue) string {
	if !w.IsSet() {
		return NotSet
	}

	switch fieldType {
	case Date:
		date := Decode(Date, w).(string)
		if len(date) < minDateLength {
			return date
		}
		parts := strings.Split(date[:minDateLength], "-")
		if len(parts) != 3 {
			return date
		}
		return parts[1] + "/" + parts[2] + "/" + parts[0]
	case User:
		if w.User != nil && w.User.EmailAddress != "" && w.User.DisplayName != "" {
			return fmt.Sprintf("%s (%s)", w.User.DisplayName, w.User.EmailAddress)
		}
		return Decode(User, w).(string)
	case Integer:
		return strconv.FormatInt(Decode(Integer, w).(int64), 10)
	case Text, LongText, Selection:
		return Decode(fieldType, w).(string)
	default:
		return fmt.Sprint(firstPayload(w))
	}
}

func firstPayload(w WireValue) any {
	switch {
	case w.Text != nil:
		return *w.Text
	case w.Integer != nil:
		return *w.Integer
	case w.Date != nil:
		return *w.Date
	case w.User != nil:
		return w.User.EmailAddress
	case w.Selection != nil:
		return w.Selection.ValueID
	}
	return ""
}
