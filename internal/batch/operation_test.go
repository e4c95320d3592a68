// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperation(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		kind     Kind
		fileID   string
		labelID  string
		fieldID  string
		value    any
		expected Operation
		invalid  bool
	}{
		"apply": {
			kind: KindApply, fileID: " F1 ", labelID: "L1", fieldID: "f1", value: "v",
			expected: Operation{Kind: KindApply, FileID: "F1", LabelID: "L1", FieldID: "f1", Value: "v"},
		},
		"unset drops the value": {
			kind: KindUnset, fileID: "F1", labelID: "L1", fieldID: "f1", value: "v",
			expected: Operation{Kind: KindUnset, FileID: "F1", LabelID: "L1", FieldID: "f1"},
		},
		"remove drops field and value": {
			kind: KindRemove, fileID: "F1", labelID: "L1", fieldID: "f1", value: "v",
			expected: Operation{Kind: KindRemove, FileID: "F1", LabelID: "L1"},
		},
		"missing file":           {kind: KindApply, labelID: "L1", fieldID: "f1", invalid: true},
		"missing label":          {kind: KindApply, fileID: "F1", fieldID: "f1", invalid: true},
		"missing field":          {kind: KindUpdate, fileID: "F1", labelID: "L1", invalid: true},
		"unknown kind":           {kind: Kind("copy"), fileID: "F1", labelID: "L1", fieldID: "f1", invalid: true},
		"missing field on unset": {kind: KindUnset, fileID: "F1", labelID: "L1", invalid: true},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			op, err := NewOperation(test.kind, test.fileID, test.labelID, test.fieldID, test.value)
			if test.invalid {
				require.ErrorIs(t, err, ErrInvalidOperation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected, op)
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindApply, kind)

	kind, err = ParseKind(" REMOVE ")
	require.NoError(t, err)
	assert.Equal(t, KindRemove, kind)

	_, err = ParseKind("delete")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	invalid := Config{BatchSize: -1, RetryCount: -1, RetryDelay: -time.Second, JitterFraction: 2, Concurrency: -1, RequestsPerSecond: -1}
	err := invalid.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "batch size")
	assert.Contains(t, err.Error(), "jitter")

	config := Config{RetryDelay: time.Second, MaxRetryDelay: 5 * time.Second, MaxInterBatchPause: 10 * time.Second}
	assert.Equal(t, time.Second, config.retryDelay(1))
	assert.Equal(t, 2*time.Second, config.retryDelay(2))
	assert.Equal(t, 4*time.Second, config.retryDelay(3))
	assert.Equal(t, 5*time.Second, config.retryDelay(4))

	assert.Equal(t, time.Second, config.nextPause(0))
	assert.Equal(t, 4*time.Second, config.nextPause(2*time.Second))
	assert.Equal(t, 10*time.Second, config.nextPause(8*time.Second))
	assert.Equal(t, 10*time.Second, config.nextPause(10*time.Second))

	uncapped := Config{}
	assert.Equal(t, 10*time.Second, uncapped.nextPause(8*time.Second))
	assert.Equal(t, 10*time.Second, uncapped.nextPause(time.Duration(1<<62)))

	tooLong := DefaultConfig()
	tooLong.InterBatchPause = time.Minute
	require.ErrorIs(t, tooLong.Validate(), ErrInvalidConfig)
	tooLong.MaxInterBatchPause = 0
	require.ErrorIs(t, tooLong.Validate(), ErrInvalidConfig)
	tooLong.MaxInterBatchPause = 2 * time.Minute
	require.NoError(t, tooLong.Validate())

	assert.Equal(t, 7, config.batchSize(7))
	assert.Equal(t, 1, config.batchSize(0))
	assert.Equal(t, 1, config.concurrency())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(ErrService))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(assert.AnError))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(ErrPermissionDenied))
	assert.False(t, IsRetryable(ErrInvalidOperation))
}
