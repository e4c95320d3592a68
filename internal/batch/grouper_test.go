// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		ops             []Operation
		expectedKeys    []string
		expectedSizes   []int
		expectedDropped []int
	}{
		"same file and label share a group": {
			ops: []Operation{
				{Kind: KindApply, FileID: "F1", LabelID: "L1", FieldID: "f1", Value: "a"},
				{Kind: KindApply, FileID: "F1", LabelID: "L1", FieldID: "f2", Value: "b"},
			},
			expectedKeys:  []string{"F1/L1"},
			expectedSizes: []int{2},
		},
		"groups follow file order then label order": {
			ops: []Operation{
				{Kind: KindApply, FileID: "F2", LabelID: "L1", FieldID: "f"},
				{Kind: KindApply, FileID: "F1", LabelID: "L2", FieldID: "f"},
				{Kind: KindApply, FileID: "F2", LabelID: "L3", FieldID: "f"},
				{Kind: KindApply, FileID: "F1", LabelID: "L1", FieldID: "f"},
				{Kind: KindRemove, FileID: "F2", LabelID: "L1"},
			},
			expectedKeys:  []string{"F2/L1", "F2/L3", "F1/L2", "F1/L1"},
			expectedSizes: []int{2, 1, 1, 1},
		},
		"label ids are normalized": {
			ops: []Operation{
				{Kind: KindApply, FileID: "F1", LabelID: "labels/L1@3", FieldID: "f1"},
				{Kind: KindUnset, FileID: "F1", LabelID: "L1", FieldID: "f2"},
			},
			expectedKeys:  []string{"F1/L1"},
			expectedSizes: []int{2},
		},
		"operations without file or label are dropped": {
			ops: []Operation{
				{Kind: KindApply, FileID: "", LabelID: "L1", FieldID: "f1"},
				{Kind: KindApply, FileID: "F1", LabelID: "L1", FieldID: "f1"},
				{Kind: KindRemove, FileID: "F1", LabelID: ""},
			},
			expectedKeys:    []string{"F1/L1"},
			expectedSizes:   []int{1},
			expectedDropped: []int{0, 2},
		},
		"no operations": {
			expectedKeys:  []string{},
			expectedSizes: []int{},
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			groups, dropped := Group(test.ops)
			keys := make([]string, 0, len(groups))
			sizes := make([]int, 0, len(groups))
			for _, group := range groups {
				keys = append(keys, group.FileID+"/"+group.LabelID)
				sizes = append(sizes, group.Size())
			}

			assert.Equal(t, test.expectedKeys, keys)
			assert.Equal(t, test.expectedSizes, sizes)
			assert.Equal(t, test.expectedDropped, dropped)
		})
	}
}

func TestGroupKeepsRemovalsApart(t *testing.T) {
	t.Parallel()

	ops := []Operation{
		{Kind: KindApply, FileID: "F1", LabelID: "L1", FieldID: "f1", Value: "a"},
		{Kind: KindRemove, FileID: "F1", LabelID: "L1"},
		{Kind: KindUnset, FileID: "F1", LabelID: "L1", FieldID: "f2"},
		{Kind: KindUpdate, FileID: "F1", LabelID: "L1", FieldID: "f1", Value: "b"},
	}

	groups, dropped := Group(ops)
	require.Len(t, groups, 1)
	assert.Empty(t, dropped)

	group := groups[0]
	require.Len(t, group.Modifications, 3)
	require.Len(t, group.Removals, 1)

	assert.Equal(t, []int{0, 2, 3}, []int{group.Modifications[0].Index, group.Modifications[1].Index, group.Modifications[2].Index})
	assert.False(t, group.Modifications[0].Unset())
	assert.True(t, group.Modifications[1].Unset())
	assert.Equal(t, "b", group.Modifications[2].Operation.Value, "duplicated fields are appended")
	assert.Equal(t, 1, group.Removals[0].Index)
}
