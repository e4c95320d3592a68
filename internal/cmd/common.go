// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/audit"
	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/config"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

const (
	loggerName = "drive-labels:cmd"

	yesFlagName  = "yes"
	yesFlagShort = "y"
	yesFlagUsage = "do not ask for confirmation before destructive changes"
)

var (
	errMissingArguments = errors.New("missing required arguments")
	errInvalidFlags     = errors.New("invalid flags")
	errCancelled        = errors.New("operation cancelled")
	errOperationsFailed = errors.New("some operations did not succeed")
	errInvalidRows      = errors.New("some rows of the csv file are invalid")
)

// runner is implemented by the options of every command.
type runner interface {
	validate() error
	execute(ctx context.Context) error
}

// runE returns the cobra RunE function converting flags to options, validating them
// and executing them.
func runE[O runner](toOptions func(*cobra.Command, []string) (O, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		opts, err := toOptions(cmd, args)
		if err != nil {
			return handleError(cmd, err)
		}

		if err := opts.validate(); err != nil {
			return handleError(cmd, err)
		}

		if err := opts.execute(cmd.Context()); err != nil {
			return handleError(cmd, err)
		}

		return nil
	}
}

// handleError will do custom print error handling based on the type of error received.
// it will return nil if the command must return 0 exit code, otherwise it will return
// the original error.
func handleError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, errCancelled):
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled.")
		return nil
	case errors.Is(err, errMissingArguments), errors.Is(err, errInvalidFlags):
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return err
	default:
		cmd.PrintErrln(err)
		return err
	}
}

func argAt(args []string, index int) string {
	if index < len(args) {
		return strings.TrimSpace(args[index])
	}
	return ""
}

func labelClient(ctx context.Context) (*drive.LabelClient, error) {
	service, err := drive.NewService(config.FromContext(ctx).Drive())
	if err != nil {
		return nil, err
	}
	return service.LabelClient(ctx)
}

func clients(ctx context.Context) (*drive.LabelClient, *drive.FileClient, error) {
	service, err := drive.NewService(config.FromContext(ctx).Drive())
	if err != nil {
		return nil, nil, err
	}

	labelClient, err := service.LabelClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	fileClient, err := service.FileClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return labelClient, fileClient, nil
}

func auditUser(ctx context.Context) string {
	if subject := config.FromContext(ctx).Auth.Subject; subject != "" {
		return subject
	}
	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}
	return audit.UnknownUser
}

// openAudit returns the sink for the audit records of a command. When the database
// cannot be opened the records are only logged. The returned function closes the sink.
func openAudit(ctx context.Context) (batch.AuditSink, func()) {
	log := logger.FromContext(ctx).WithName(loggerName)

	path, err := config.FromContext(ctx).AuditPath()
	if err != nil {
		log.Warn("audit database not available, records are only logged", "error", err.Error())
		return audit.LoggerSink{}, func() {}
	}

	store, err := audit.Open(ctx, path, auditUser(ctx))
	if err != nil {
		log.Warn("audit database not available, records are only logged", "path", path, "error", err.Error())
		return audit.LoggerSink{}, func() {}
	}

	return audit.Multi(store, audit.LoggerSink{}), func() {
		if err := store.Close(); err != nil {
			log.Warn("cannot close audit database", "error", err.Error())
		}
	}
}

// recordAudit writes one audit record. Failures are only logged.
func recordAudit(ctx context.Context, action, targetID, description string) {
	sink, closeSink := openAudit(ctx)
	defer closeSink()

	if err := sink.Record(ctx, action, targetID, description); err != nil {
		logger.FromContext(ctx).WithName(loggerName).Warn("cannot write audit record", "action", action, "error", err.Error())
	}
}

// confirm asks question on out and reads the answer from in. It returns errCancelled
// unless the answer is yes. Nothing is asked when skip is true or confirmations are
// disabled in the configuration.
func confirm(ctx context.Context, in io.Reader, out io.Writer, skip bool, question string) error {
	if skip || !config.FromContext(ctx).UI.ConfirmDestructive {
		return nil
	}

	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	fmt.Fprintln(out)

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errCancelled
	}
}

// printer writes the human readable output of the commands.
type printer struct {
	out     io.Writer
	success *color.Color
	warning *color.Color
	title   *color.Color
}

func newPrinter(ctx context.Context, out io.Writer) *printer {
	p := &printer{
		out:     out,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		title:   color.New(color.Bold),
	}

	for _, c := range []*color.Color{p.success, p.warning, p.title} {
		if config.FromContext(ctx).UI.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, p.success.Sprintf(format, args...))
}

func (p *printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.out, p.warning.Sprintf(format, args...))
}

func (p *printer) Titlef(format string, args ...any) {
	fmt.Fprintln(p.out, p.title.Sprintf(format, args...))
}

func (p *printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Table writes rows aligned in columns under header.
func (p *printer) Table(header []string, rows [][]string) {
	writer := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	_ = writer.Flush()
}

func truncate(s string, size int) string {
	if len([]rune(s)) <= size {
		return s
	}
	return string([]rune(s)[:size]) + "..."
}
