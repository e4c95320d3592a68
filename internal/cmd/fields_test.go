// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drivelabels/v2"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

func fieldRoutes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v2/labels/L1":        writeJSON(labelJSON(labels.StatePublished)),
		"POST /v2/labels/L1:delta": writeJSON(`{"updatedLabel": ` + labelJSON(labels.StatePublished) + `}`),
	}
}

func TestLabelsFieldUpdate(t *testing.T) {
	t.Parallel()

	api, cfg := newFakeAPI(t, fieldRoutes())

	result := execute(t, cfg, LabelsCmd(), "", "field", "update", "L1", "title", "--name", "Agreement title", "--required=false")
	require.NoError(t, result.err)
	assert.Equal(t, "Field title of label L1 updated\n", result.stdout)
	assert.Equal(t, []string{"update_field"}, auditActions(t, cfg))

	bodies := api.bodiesOf("POST /v2/labels/L1:delta")
	require.Len(t, bodies, 1)
	var sent drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequest
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &sent))
	update := sent.Requests[0].UpdateField
	require.NotNil(t, update)
	assert.Equal(t, "title", update.Id)
	assert.Equal(t, "displayName,required", update.UpdateMask)
	assert.Equal(t, "Agreement title", update.Properties.DisplayName)
	assert.False(t, update.Properties.Required)

	result = execute(t, cfg, LabelsCmd(), "", "field", "update", "L1", "title")
	require.ErrorIs(t, result.err, errInvalidFlags)
	result = execute(t, cfg, LabelsCmd(), "", "field", "update", "L1")
	require.ErrorIs(t, result.err, errMissingArguments)

	result = execute(t, cfg, LabelsCmd(), "", "field", "update", "L1", "missing", "--required")
	require.Error(t, result.err)
	assert.Contains(t, result.stderr, "field missing on label L1")

	assert.Equal(t, 1, api.count("POST /v2/labels/L1:delta"))
	assert.Equal(t, []string{"update_field"}, auditActions(t, cfg))
}

func TestLabelsFieldLifecycle(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		args           []string
		stdin          string
		expectedOutput string
		expectedCalls  int
		expectedAudit  []string
		check          func(t *testing.T, request *drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest)
	}{
		"disable confirmed by flag": {
			args:           []string{"field", "disable", "L1", "amount", "--yes"},
			expectedOutput: "Field amount of label L1 disabled successfully\n",
			expectedCalls:  1,
			expectedAudit:  []string{"disable_field"},
			check: func(t *testing.T, request *drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest) {
				t.Helper()
				require.NotNil(t, request.DisableField)
				assert.Equal(t, "amount", request.DisableField.Id)
			},
		},
		"disable refused": {
			args:           []string{"field", "disable", "L1", "amount"},
			stdin:          "n\n",
			expectedOutput: "Are you sure you want to disable field amount of label L1? [y/N]: \nOperation cancelled.\n",
			expectedAudit:  []string{},
		},
		"enable without confirmation": {
			args:           []string{"field", "enable", "L1", "fields/amount"},
			expectedOutput: "Field fields/amount of label L1 enabled successfully\n",
			expectedCalls:  1,
			expectedAudit:  []string{"enable_field"},
			check: func(t *testing.T, request *drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest) {
				t.Helper()
				require.NotNil(t, request.EnableField)
				assert.Equal(t, "amount", request.EnableField.Id)
			},
		},
		"delete confirmed by answer": {
			args:           []string{"field", "delete", "L1", "amount"},
			stdin:          "y\n",
			expectedOutput: "Are you sure you want to delete field amount of label L1? [y/N]: \nField amount of label L1 deleted successfully\n",
			expectedCalls:  1,
			expectedAudit:  []string{"delete_field"},
			check: func(t *testing.T, request *drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest) {
				t.Helper()
				require.NotNil(t, request.DeleteField)
				assert.Equal(t, "amount", request.DeleteField.Id)
			},
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			api, cfg := newFakeAPI(t, fieldRoutes())

			result := execute(t, cfg, LabelsCmd(), test.stdin, test.args...)
			require.NoError(t, result.err)
			assert.Equal(t, test.expectedOutput, result.stdout)
			assert.Equal(t, test.expectedAudit, auditActions(t, cfg))

			bodies := api.bodiesOf("POST /v2/labels/L1:delta")
			require.Len(t, bodies, test.expectedCalls)
			if test.check != nil {
				var sent drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequest
				require.NoError(t, json.Unmarshal([]byte(bodies[0]), &sent))
				require.Len(t, sent.Requests, 1)
				test.check(t, sent.Requests[0])
			}
		})
	}
}

func TestLabelsFieldDeleteOnDraftShowsPublishHint(t *testing.T) {
	t.Parallel()

	_, cfg := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /v2/labels/L1:delta": writeJSON(`{"updatedLabel": ` + labelJSON(labels.StateDraft) + `}`),
	})

	result := execute(t, cfg, LabelsCmd(), "", "field", "delete", "L1", "amount", "--yes")
	require.NoError(t, result.err)
	assert.Contains(t, result.stdout, "drive-labels labels publish L1\n")
}

func TestLabelsFieldUpdateChoice(t *testing.T) {
	t.Parallel()

	api, cfg := newFakeAPI(t, fieldRoutes())

	result := execute(t, cfg, LabelsCmd(), "", "field", "update-choice", "L1", "status", "Closed", "--name", "Done", "--color", "#00FF00")
	require.NoError(t, result.err)
	assert.Equal(t, "Option 'Closed' of field status updated\n", result.stdout)
	assert.Equal(t, []string{"update_selection_choice"}, auditActions(t, cfg))

	bodies := api.bodiesOf("POST /v2/labels/L1:delta")
	require.Len(t, bodies, 1)
	var sent drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequest
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &sent))
	update := sent.Requests[0].UpdateSelectionChoiceProperties
	require.NotNil(t, update)
	assert.Equal(t, "c2", update.Id)
	assert.Equal(t, "Done", update.Properties.DisplayName)
	assert.InDelta(t, 1.0, update.Properties.BadgeConfig.Color.Green, 0.001)

	result = execute(t, cfg, LabelsCmd(), "", "field", "update-choice", "L1", "status", "Closed")
	require.ErrorIs(t, result.err, errInvalidFlags)

	result = execute(t, cfg, LabelsCmd(), "", "field", "update-choice", "L1", "amount", "Closed", "--name", "Done")
	require.ErrorIs(t, result.err, labels.ErrInvalidField)

	result = execute(t, cfg, LabelsCmd(), "", "field", "update-choice", "L1", "status", "Closed", "--color", "green")
	require.ErrorIs(t, result.err, labels.ErrInvalidValue)

	assert.Equal(t, 1, api.count("POST /v2/labels/L1:delta"))
	assert.Equal(t, []string{"update_selection_choice"}, auditActions(t, cfg))
}
