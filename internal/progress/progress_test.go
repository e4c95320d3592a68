// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package progress

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

func TestTerminal(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	terminal := NewTerminal(out, false)
	terminal.Update(0, 4, "starting")
	terminal.Update(1, 3, "batch 1 of 3")
	terminal.Update(4, 4, "done")
	terminal.Update(0, 0, "nothing to do")

	assert.Equal(t, strings.Join([]string{
		"[0/4] starting (0%)",
		"[1/3] batch 1 of 3 (33%)",
		"[4/4] done (100%)",
		"[0/0] nothing to do (0%)",
		"",
	}, "\n"), out.String())
}

func TestTerminalColors(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	terminal := NewTerminal(out, true)
	terminal.Update(1, 2, "working")
	terminal.Update(2, 2, "done")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "\x1b[36m[1/2]"))
	assert.True(t, strings.HasPrefix(lines[1], "\x1b[32;1m[2/2]"))
	assert.True(t, strings.HasSuffix(lines[1], "done (100%)"))
}

func TestLogger(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)
	log := logger.NewLogger(buffer)
	log.SetLevel(logger.DEBUG)

	NewLogger(log).Update(5, 10, "applying labels")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
	assert.Equal(t, "applying labels", line["@message"])
	assert.Equal(t, "debug", line["@level"])
	assert.Equal(t, loggerName, line["@module"])
	assert.InDelta(t, 5, line["current"], 0)
	assert.InDelta(t, 50, line["percentage"], 0)
}

func TestPercentage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, percentage(3, 0))
	assert.Equal(t, 66, percentage(2, 3))
	assert.Equal(t, 100, percentage(7, 5))
}
