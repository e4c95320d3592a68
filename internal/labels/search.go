// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	OpIsNull         = "is null"
	OpIsNotNull      = "is not null"
	OpEqual          = "="
	OpNotEqual       = "!="
	OpLess           = "<"
	OpGreater        = ">"
	OpLessOrEqual    = "<="
	OpGreaterOrEqual = ">="
	OpContains       = "contains"
	OpStartsWith     = "starts with"
	OpIn             = "in"
	OpNotIn          = "not in"

	searchLoggerName = "drive-labels:labels:search"
)

// queryOperators maps the accepted operators to their query keyword.
var queryOperators = map[string]string{
	OpIsNull:         "IS NULL",
	OpIsNotNull:      "IS NOT NULL",
	OpEqual:          "=",
	OpNotEqual:       "!=",
	OpLess:           "<",
	OpGreater:        ">",
	OpLessOrEqual:    "<=",
	OpGreaterOrEqual: ">=",
	OpContains:       "CONTAINS",
	OpStartsWith:     "STARTS WITH",
	OpIn:             "IN",
	OpNotIn:          "NOT IN",
}

// Condition is one clause of a label search.
// Without FieldID the clause only checks that the label is applied.
type Condition struct {
	LabelID  string
	FieldID  string
	Operator string
	Value    any
}

// SearchPredicate renders a search clause over the field fieldID of label labelID.
// A nil value means no value was given; it is required by every operator except
// "is null" and "is not null", which ignore it.
func SearchPredicate(labelID, fieldID, operator string, value any) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(operator))
	keyword, ok := queryOperators[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, operator)
	}

	fieldPath := "labels/" + baseLabelID(labelID) + "." + fieldID
	switch normalized {
	case OpIsNull, OpIsNotNull:
		return fieldPath + " " + keyword, nil
	}

	if value == nil {
		return "", fmt.Errorf("%w for operator %q", ErrMissingValue, operator)
	}

	if normalized == OpIn || normalized == OpNotIn {
		return keyword + " (" + strings.Join(queryList(value), ", ") + ") " + fieldPath, nil
	}

	return fieldPath + " " + keyword + " " + queryLiteral(value), nil
}

// LabelPresence renders the clause matching files that have labelID applied.
func LabelPresence(labelID string) string {
	return "'labels/" + baseLabelID(labelID) + "' in labels"
}

// SearchQuery joins conditions with AND. Conditions without a label are ignored and a
// condition whose predicate cannot be built falls back to the label presence check.
func SearchQuery(ctx context.Context, conditions []Condition) string {
	log := logger.FromContext(ctx).WithName(searchLoggerName)

	parts := make([]string, 0, len(conditions))
	for _, condition := range conditions {
		if condition.LabelID == "" {
			continue
		}

		if condition.FieldID == "" {
			parts = append(parts, LabelPresence(condition.LabelID))
			continue
		}

		operator := condition.Operator
		if operator == "" {
			operator = OpIsNotNull
		}

		predicate, err := SearchPredicate(condition.LabelID, condition.FieldID, operator, condition.Value)
		if err != nil {
			log.Warn("invalid search condition, checking label presence only", "labelId", condition.LabelID, "fieldId", condition.FieldID, "error", err.Error())
			predicate = LabelPresence(condition.LabelID)
		}
		parts = append(parts, predicate)
	}

	return strings.Join(parts, " AND ")
}

// baseLabelID strips the resource prefix and revision from id when it parses.
func baseLabelID(id string) string {
	parsed, err := ParseLabelID(id)
	if err != nil {
		return id
	}
	return parsed.Base
}

func queryList(value any) []string {
	reflected := reflect.ValueOf(value)
	if (reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array) || reflected.Type().Elem().Kind() == reflect.Uint8 {
		return []string{queryLiteral(value)}
	}

	items := make([]string, 0, reflected.Len())
	for i := range reflected.Len() {
		items = append(items, queryLiteral(reflected.Index(i).Interface()))
	}
	return items
}

func queryLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return quote(stringify(v))
	}
}

func quote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(s) + "'"
}
