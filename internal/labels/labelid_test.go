// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabelID(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		input    string
		expected LabelID
		invalid  bool
	}{
		"bare id":          {input: "abc123", expected: LabelID{Base: "abc123"}},
		"id with revision": {input: "abc123@5", expected: LabelID{Base: "abc123", Revision: "5"}},
		"resource name":    {input: "labels/abc123", expected: LabelID{Base: "abc123"}},
		"resource name and revision": {
			input:    "labels/abc123@revision",
			expected: LabelID{Base: "abc123", Revision: "revision"},
		},
		"empty":           {input: "", invalid: true},
		"only prefix":     {input: "labels/", invalid: true},
		"empty revision":  {input: "abc@", invalid: true},
		"missing base":    {input: "@5", invalid: true},
		"double revision": {input: "abc@1@2", invalid: true},
		"nested resource": {input: "labels/abc/fields/x", invalid: true},
		"embedded space":  {input: "abc def", invalid: true},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			id, err := ParseLabelID(test.input)
			if test.invalid {
				require.ErrorIs(t, err, ErrInvalidLabelID)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected, id)

			reparsed, err := ParseLabelID(id.String())
			require.NoError(t, err)
			assert.Equal(t, id, reparsed)

			reparsed, err = ParseLabelID(id.RevisionName())
			require.NoError(t, err)
			assert.Equal(t, id, reparsed)
		})
	}
}

func TestLabelIDFormatting(t *testing.T) {
	t.Parallel()

	id := LabelID{Base: "abc", Revision: "3"}
	assert.Equal(t, "abc@3", id.String())
	assert.Equal(t, "labels/abc", id.ResourceName())
	assert.Equal(t, "labels/abc@3", id.RevisionName())
	assert.Equal(t, LabelID{Base: "abc"}, id.WithoutRevision())
	assert.Equal(t, "labels/abc", id.WithoutRevision().RevisionName())
}
