// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/config"
	"github.com/shawncrivello/label-me-labeled/internal/csvio"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	bulkCmdShort = "apply label changes listed in a csv file"
	bulkCmdLong  = `Apply the label changes listed in a csv file.

	The file needs the fileId, labelId, fieldId and value columns; an optional
	action column selects apply, update, unset or remove for each row and
	defaults to apply. Comma, semicolon and tab delimited files are accepted.

	Changes on the same file and label are sent together. Rate limited and
	unavailable calls are retried with growing delays, and the pause between
	batches grows while the service keeps limiting the requests.`
	bulkCmdExample = `# Apply the changes with two concurrent requests and save the run metrics
	drive-labels bulk-apply changes.csv --concurrency 2 --metrics-file run.prom`

	retriesFlagName      = "retries"
	retriesFlagUsage     = "number of retry passes for rate limited or failed calls"
	concurrencyFlagName  = "concurrency"
	concurrencyFlagUsage = "number of files changed at the same time"
	batchSizeFlagName    = "batch-size"
	batchSizeFlagUsage   = "number of files changed between two pauses"
	strictDatesFlagName  = "strict-dates"
	strictDatesFlagUsage = "reject DATE values that are not calendar dates"
	metricsFileFlagName  = "metrics-file"
	metricsFileFlagUsage = "write the run metrics to this file in Prometheus text format"
	dryRunFlagName       = "dry-run"
	dryRunFlagUsage      = "only read the csv file and print the operations"
)

// BulkApplyCmd returns the "bulk-apply" command.
func BulkApplyCmd() *cobra.Command {
	flags := &bulkFlags{}
	cmd := newLeafCommand("bulk-apply CSV", bulkCmdShort, bulkCmdExample, nil)
	cmd.Long = heredoc.Doc(bulkCmdLong)
	cmd.ValidArgsFunction = nil
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type bulkFlags struct {
	retries     int
	concurrency int
	batchSize   int
	strictDates bool
	metricsFile string
	dryRun      bool
	yes         bool
}

func (f *bulkFlags) addFlags(cmd *cobra.Command) {
	defaults := batch.DefaultConfig()

	flags := cmd.Flags()
	flags.IntVar(&f.retries, retriesFlagName, defaults.RetryCount, retriesFlagUsage)
	flags.IntVar(&f.concurrency, concurrencyFlagName, defaults.Concurrency, concurrencyFlagUsage)
	flags.IntVar(&f.batchSize, batchSizeFlagName, defaults.BatchSize, batchSizeFlagUsage)
	flags.BoolVar(&f.strictDates, strictDatesFlagName, false, strictDatesFlagUsage)
	flags.StringVar(&f.metricsFile, metricsFileFlagName, "", metricsFileFlagUsage)
	flags.BoolVar(&f.dryRun, dryRunFlagName, false, dryRunFlagUsage)
	flags.BoolVarP(&f.yes, yesFlagName, yesFlagShort, false, yesFlagUsage)
}

func (f *bulkFlags) toOptions(cmd *cobra.Command, args []string) (*bulkOptions, error) {
	// flags left to their default keep the values of the configuration file
	settings := config.FromContext(cmd.Context()).Batch()
	if cmd.Flags().Changed(retriesFlagName) {
		settings.RetryCount = f.retries
	}
	if cmd.Flags().Changed(batchSizeFlagName) {
		settings.BatchSize = f.batchSize
	}
	settings.Concurrency = f.concurrency
	settings.StrictDates = f.strictDates

	return &bulkOptions{
		path:        argAt(args, 0),
		settings:    settings,
		metricsFile: strings.TrimSpace(f.metricsFile),
		dryRun:      f.dryRun,
		yes:         f.yes,
		in:          cmd.InOrStdin(),
		out:         cmd.OutOrStdout(),
		errOut:      cmd.ErrOrStderr(),
	}, nil
}

type bulkOptions struct {
	path        string
	settings    batch.Config
	metricsFile string
	dryRun      bool
	yes         bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (o *bulkOptions) validate() error {
	if o.path == "" {
		return fmt.Errorf("%w: CSV", errMissingArguments)
	}
	if o.settings.Concurrency < 1 {
		return fmt.Errorf("%w: --%s must be at least 1", errInvalidFlags, concurrencyFlagName)
	}
	if err := o.settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidFlags, err)
	}
	return nil
}

func (o *bulkOptions) execute(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	file, err := os.Open(o.path)
	if err != nil {
		return err
	}
	ops, readErr := csvio.ReadOperations(file)
	_ = file.Close()
	if len(ops) == 0 {
		return readErr
	}
	printRowErrors(o.errOut, readErr)
	log.Info("operations read", "path", o.path, "operations", len(ops))

	p := newPrinter(ctx, o.out)
	if o.dryRun {
		for _, op := range ops {
			p.Printf("%s\n", op)
		}
		p.Printf("\n%d operations read from %s\n", len(ops), o.path)
		return rowsError(readErr)
	}

	question := fmt.Sprintf("Apply %d operations read from %s?", len(ops), o.path)
	if err := confirm(ctx, o.in, o.out, o.yes, question); err != nil {
		return err
	}

	settings := runSettings{config: o.settings}
	var registry *prometheus.Registry
	if o.metricsFile != "" {
		registry = prometheus.NewRegistry()
		settings.metrics = batch.NewMetrics(registry)
	}

	_, runErr := runOperations(ctx, o.out, o.errOut, ops, settings)
	if registry != nil {
		if err := prometheus.WriteToTextfile(o.metricsFile, registry); err != nil {
			log.Warn("cannot write metrics file", "path", o.metricsFile, "error", err.Error())
		} else {
			log.Debug("metrics written", "path", o.metricsFile)
		}
	}

	return errors.Join(runErr, rowsError(readErr))
}

func rowsError(readErr error) error {
	if readErr != nil {
		return errInvalidRows
	}
	return nil
}
