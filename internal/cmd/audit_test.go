// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawncrivello/label-me-labeled/internal/audit"
	"github.com/shawncrivello/label-me-labeled/internal/config"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	_, cfg := newFakeAPI(t, nil)

	result := execute(t, cfg, AuditCmd(), "")
	require.NoError(t, result.err)
	assert.Equal(t, "No audit records found.\n", result.stdout)

	store, err := audit.Open(t.Context(), cfg.Logging.AuditLog, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), "create_label", "L1", "Created label 'Contract'"))
	require.NoError(t, store.Record(t.Context(), "publish_label", "L1", strings.Repeat("x", 80)))
	require.NoError(t, store.Close())

	result = execute(t, cfg, AuditCmd(), "")
	require.NoError(t, result.err)
	lines := strings.Split(strings.TrimSuffix(result.stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^TIMESTAMP\s+USER\s+ACTION\s+TARGET\s+DESCRIPTION$`, lines[0])
	assert.Regexp(t, `ada@example.com\s+publish_label\s+L1\s+x{60}\.\.\.$`, lines[1])
	assert.Regexp(t, `ada@example.com\s+create_label\s+L1\s+Created label 'Contract'$`, lines[2])

	result = execute(t, cfg, AuditCmd(), "", "--limit", "1")
	require.NoError(t, result.err)
	assert.Len(t, strings.Split(strings.TrimSuffix(result.stdout, "\n"), "\n"), 2)

	result = execute(t, cfg, AuditCmd(), "", "--limit", "0")
	require.ErrorIs(t, result.err, errInvalidFlags)
}

func TestRecordAuditFallsBackToLogger(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	// a directory cannot be opened as database
	cfg.Logging.AuditLog = t.TempDir()

	sink, closeSink := openAudit(config.WithContext(t.Context(), cfg))
	defer closeSink()
	assert.IsType(t, audit.LoggerSink{}, sink)
	assert.NoError(t, sink.Record(t.Context(), "create_label", "L1", "Created"))
}
