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

	"github.com/shawncrivello/label-me-labeled/internal/audit"
)

func TestLabelsPermissionsSet(t *testing.T) {
	t.Parallel()

	api, cfg := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /v2/labels/L1/permissions": writeJSON(`{"name": "labels/L1/permissions/3", "email": "legal@example.com", "role": "APPLIER"}`),
	})

	result := execute(t, cfg, LabelsCmd(), "", "permissions", "set", "labels/L1", "legal@example.com", "--role", "applier")
	require.NoError(t, result.err)
	assert.Equal(t, "legal@example.com is now APPLIER on label L1\n", result.stdout)

	bodies := api.bodiesOf("POST /v2/labels/L1/permissions")
	require.Len(t, bodies, 1)
	var sent drivelabels.GoogleAppsDriveLabelsV2LabelPermission
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &sent))
	assert.Equal(t, "legal@example.com", sent.Email)
	assert.Equal(t, "APPLIER", sent.Role)

	store, err := audit.Open(t.Context(), cfg.Logging.AuditLog, "tester")
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "update_permissions", entries[0].Action)
	assert.Equal(t, "L1", entries[0].TargetID)
	assert.Equal(t, "Updated label permissions for legal@example.com to APPLIER", entries[0].Description)
}

func TestLabelsPermissionsSetErrors(t *testing.T) {
	t.Parallel()

	api, cfg := newFakeAPI(t, map[string]http.HandlerFunc{
		"POST /v2/labels/L1/permissions": failWith(http.StatusForbidden, "caller cannot share this label"),
	})

	result := execute(t, cfg, LabelsCmd(), "", "permissions", "set", "L1", "legal@example.com", "--role", "OWNER")
	require.ErrorIs(t, result.err, errInvalidFlags)
	assert.Contains(t, result.stderr, "READER, APPLIER, EDITOR, ORGANIZER")

	result = execute(t, cfg, LabelsCmd(), "", "permissions", "set", "L1", "legal@example.com")
	require.ErrorIs(t, result.err, errInvalidFlags)

	result = execute(t, cfg, LabelsCmd(), "", "permissions", "set", "L1", "--role", "READER")
	require.ErrorIs(t, result.err, errMissingArguments)
	assert.Zero(t, api.count("POST /v2/labels/L1/permissions"))

	result = execute(t, cfg, LabelsCmd(), "", "permissions", "set", "L1", "legal@example.com", "--role", "READER")
	require.Error(t, result.err)
	assert.Contains(t, result.stderr, "caller cannot share this label")
	assert.Equal(t, 1, api.count("POST /v2/labels/L1/permissions"))
	assert.Empty(t, auditActions(t, cfg))
}

func TestLabelsPermissionsList(t *testing.T) {
	t.Parallel()

	_, cfg := newFakeAPI(t, map[string]http.HandlerFunc{
		"GET /v2/labels/L1/permissions": writeJSON(`{"labelPermissions": [
			{"name": "labels/L1/permissions/3", "email": "legal@example.com", "role": "APPLIER"},
			{"name": "labels/L1/permissions/4", "group": "groups/finance", "role": "READER"}
		]}`),
		"GET /v2/labels/L2/permissions": writeJSON(`{}`),
	})

	result := execute(t, cfg, LabelsCmd(), "", "permissions", "list", "L1")
	require.NoError(t, result.err)
	assert.Contains(t, result.stdout, "PRINCIPAL")
	assert.Regexp(t, `legal@example\.com\s+APPLIER`, result.stdout)
	assert.Regexp(t, `groups/finance\s+READER`, result.stdout)

	result = execute(t, cfg, LabelsCmd(), "", "permissions", "list", "L2")
	require.NoError(t, result.err)
	assert.Equal(t, "No permissions found.\n", result.stdout)
}
