// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/csvio"
	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

const bulkCSV = "fileId,labelId,fieldId,value,action\n" +
	"F1,L1,amount,42,apply\n" +
	"https://drive.google.com/file/d/F1/view,L1,status,Closed,\n" +
	"F2,L1,,,remove\n" +
	",L1,title,Draft,\n"

func writeBulkFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "changes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func bulkRoutes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v2/labels/L1":           writeJSON(labelJSON(labels.StatePublished)),
		"POST /files/F1/modifyLabels": writeJSON(`{}`),
		"POST /files/F2/modifyLabels": writeJSON(`{}`),
	}
}

func TestBulkApply(t *testing.T) {
	t.Parallel()

	api, cfg := newFakeAPI(t, bulkRoutes())
	path := writeBulkFile(t, bulkCSV)
	metricsFile := filepath.Join(t.TempDir(), "run.prom")

	result := execute(t, cfg, BulkApplyCmd(), "", path, "--yes", "--concurrency", "2", "--metrics-file", metricsFile)
	require.ErrorIs(t, result.err, errInvalidRows)
	assert.Contains(t, result.stderr, "row 5: missing values for: fileId")
	assert.Contains(t, result.stdout, "Batch complete: processed 3 operations: 3 successful, 0 failed, 0 skipped, 0 invalid\n")

	modifications := api.bodiesOf("POST /files/F1/modifyLabels")
	require.Len(t, modifications, 1)
	assert.JSONEq(t, `{"labelModifications": [{"labelId": "L1", "fieldModifications": [
		{"fieldId": "amount", "setIntegerValues": ["42"]},
		{"fieldId": "status", "setSelectionValues": ["c2"]}
	]}]}`, modifications[0])
	removals := api.bodiesOf("POST /files/F2/modifyLabels")
	require.Len(t, removals, 1)
	assert.JSONEq(t, `{"labelModifications": [{"labelId": "L1", "removeLabel": true}]}`, removals[0])

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `drive_labels_batch_operations_total{status="succeeded"} 3`)
	assert.Contains(t, string(metrics), "drive_labels_batch_passes_total 1")

	assert.Equal(t, []string{batch.AuditAction}, auditActions(t, cfg))
}

func TestBulkApplyDryRun(t *testing.T) {
	t.Parallel()

	api, cfg := newFakeAPI(t, bulkRoutes())
	path := writeBulkFile(t, bulkCSV)

	result := execute(t, cfg, BulkApplyCmd(), "", path, "--dry-run")
	require.ErrorIs(t, result.err, errInvalidRows)
	assert.Equal(t, "apply L1.amount on F1\n"+
		"apply L1.status on F1\n"+
		"remove L1 on F2\n"+
		"\n3 operations read from "+path+"\n", result.stdout)
	assert.Equal(t, 0, api.count("GET /v2/labels/L1"))
}

func TestBulkApplyErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		content        string
		args           []string
		stdin          string
		expectedErr    error
		expectedStdout string
	}{
		"missing csv argument": {
			expectedErr: errMissingArguments,
		},
		"invalid concurrency": {
			content:     bulkCSV,
			args:        []string{"--concurrency", "0"},
			expectedErr: errInvalidFlags,
		},
		"negative retries": {
			content:     bulkCSV,
			args:        []string{"--retries", "-1"},
			expectedErr: errInvalidFlags,
		},
		"no valid rows": {
			content:     "fileId,labelId,fieldId,value\n,,,\nF1,,,\n",
			args:        []string{"--yes"},
			expectedErr: csvio.ErrNoRows,
		},
		"refused confirmation": {
			content:        "fileId,labelId,fieldId,value\nF1,L1,amount,1\n",
			stdin:          "no\n",
			expectedStdout: "Apply 1 operations read from ",
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			api, cfg := newFakeAPI(t, bulkRoutes())
			args := test.args
			if test.content != "" {
				args = append([]string{writeBulkFile(t, test.content)}, args...)
			}

			result := execute(t, cfg, BulkApplyCmd(), test.stdin, args...)
			if test.expectedErr != nil {
				require.ErrorIs(t, result.err, test.expectedErr)
			} else {
				require.NoError(t, result.err)
				assert.Contains(t, result.stdout, test.expectedStdout)
				assert.Contains(t, result.stdout, "Operation cancelled.\n")
			}
			assert.Equal(t, 0, api.count("POST /files/F1/modifyLabels"))
		})
	}
}
