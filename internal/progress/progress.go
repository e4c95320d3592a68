// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const loggerName = "drive-labels:progress"

var (
	_ batch.ProgressReporter = &Terminal{}
	_ batch.ProgressReporter = Logger{}
)

// Terminal prints one "[current/total] message (NN%)" line per update.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	counter *color.Color
	done    *color.Color
}

// NewTerminal returns a Terminal writing on out. Colors are used only when useColor is true.
func NewTerminal(out io.Writer, useColor bool) *Terminal {
	counter := color.New(color.FgCyan)
	done := color.New(color.FgGreen, color.Bold)
	if useColor {
		counter.EnableColor()
		done.EnableColor()
	} else {
		counter.DisableColor()
		done.DisableColor()
	}

	return &Terminal{out: out, counter: counter, done: done}
}

func (t *Terminal) Update(current, total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	counter := t.counter
	if total > 0 && current >= total {
		counter = t.done
	}
	fmt.Fprintf(t.out, "%s %s (%d%%)\n", counter.Sprintf("[%d/%d]", current, total), message, percentage(current, total))
}

// Logger writes one DEBUG line per update on a logger.
type Logger struct {
	log logger.Logger
}

// NewLogger returns a reporter writing on log.
func NewLogger(log logger.Logger) Logger {
	return Logger{log: log.WithName(loggerName)}
}

func (l Logger) Update(current, total int, message string) {
	l.log.Debug(message, "current", current, "total", total, "percentage", percentage(current, total))
}

func percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	return min(current*100/total, 100)
}
