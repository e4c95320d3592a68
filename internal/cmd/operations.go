// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"io"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/config"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
	"github.com/shawncrivello/label-me-labeled/internal/progress"
)

// maxPrintedFailures bounds the failures listed after a run.
const maxPrintedFailures = 10

// runSettings carries what a command can change on the executor set up by runOperations.
type runSettings struct {
	config  batch.Config
	metrics *batch.Metrics
}

// runOperations submits ops to the batch executor and prints the outcome on out.
// Progress goes to errOut. It returns errOperationsFailed when some operation did not
// succeed.
func runOperations(ctx context.Context, out, errOut io.Writer, ops []batch.Operation, settings runSettings) (*batch.BatchResult, error) {
	labelClient, fileClient, err := clients(ctx)
	if err != nil {
		return nil, err
	}

	sink, closeSink := openAudit(ctx)
	defer closeSink()

	cfg := config.FromContext(ctx)
	var reporter batch.ProgressReporter = progress.NewLogger(logger.FromContext(ctx))
	if cfg.UI.ShowProgress {
		reporter = progress.NewTerminal(errOut, cfg.UI.Color)
	}

	executor, err := batch.NewExecutor(labelClient, fileClient, settings.config,
		batch.WithAudit(sink),
		batch.WithProgress(reporter),
		batch.WithMetrics(settings.metrics),
	)
	if err != nil {
		return nil, err
	}

	result, runErr := executor.Run(ctx, ops)
	if result != nil {
		printResult(newPrinter(ctx, out), result)
	}
	if runErr != nil {
		return result, runErr
	}

	if result.Successful < result.Total {
		return result, errOperationsFailed
	}
	return result, nil
}

func printResult(p *printer, result *batch.BatchResult) {
	if result.Successful == result.Total {
		p.Successf("Batch complete: %s", result.Summary())
	} else {
		p.Warnf("Batch complete: %s", result.Summary())
	}

	failed := result.FailedOutcomes()
	for i, outcome := range failed {
		if i == maxPrintedFailures {
			p.Printf("  ... and %d more\n", len(failed)-maxPrintedFailures)
			break
		}

		reason := string(outcome.Status)
		if outcome.Err != nil {
			reason = outcome.Err.Error()
		}
		p.Printf("  - %s: %s\n", outcome.Operation, reason)
	}
}
