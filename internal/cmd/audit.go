// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/audit"
	"github.com/shawncrivello/label-me-labeled/internal/config"
)

const (
	auditCmdShort = "show the most recent changes recorded in the audit log"
	auditCmdLong  = `Show the most recent changes recorded in the local audit log.

	Every change made by this tool is recorded with the user that made it. The
	log is kept in the audit database of the configuration directory unless
	logging.audit_log says otherwise.`

	defaultAuditLimit    = 50
	auditLimitFlagUsage  = "maximum number of records to show"
	maxDescriptionLength = 60
	auditTimeLayout      = "2006-01-02 15:04:05"
)

// AuditCmd returns the "audit" command.
func AuditCmd() *cobra.Command {
	flags := &auditFlags{}
	cmd := newLeafCommand("audit", auditCmdShort, "", nil)
	cmd.Long = heredoc.Doc(auditCmdLong)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type auditFlags struct {
	limit int
}

func (f *auditFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, limitFlagName, defaultAuditLimit, auditLimitFlagUsage)
}

func (f *auditFlags) toOptions(cmd *cobra.Command, _ []string) (*auditOptions, error) {
	return &auditOptions{limit: f.limit, out: cmd.OutOrStdout()}, nil
}

type auditOptions struct {
	limit int
	out   io.Writer
}

func (o *auditOptions) validate() error {
	if o.limit < 1 {
		return fmt.Errorf("%w: --%s must be at least 1", errInvalidFlags, limitFlagName)
	}
	return nil
}

func (o *auditOptions) execute(ctx context.Context) error {
	path, err := config.FromContext(ctx).AuditPath()
	if err != nil {
		return err
	}

	store, err := audit.Open(ctx, path, auditUser(ctx))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, o.limit)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	if len(entries) == 0 {
		p.Printf("No audit records found.\n")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Timestamp.Local().Format(auditTimeLayout),
			entry.User,
			entry.Action,
			entry.TargetID,
			truncate(entry.Description, maxDescriptionLength),
		})
	}
	p.Table([]string{"TIMESTAMP", "USER", "ACTION", "TARGET", "DESCRIPTION"}, rows)
	return nil
}
