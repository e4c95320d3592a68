// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

const (
	permissionsCmdShort = "manage who can use or edit a label"

	permissionsListCmdShort = "list the permissions of a label"
	permissionsSetCmdShort  = "grant a role on a label to a user or a group"
	permissionsSetExample   = `# Let the legal team apply the label
	drive-labels labels permissions set LABEL_ID legal@example.com --role APPLIER`

	roleFlagName  = "role"
	roleFlagUsage = "role to grant: READER, APPLIER, EDITOR or ORGANIZER"
)

// LabelsPermissionsCmd returns the "labels permissions" command group.
func LabelsPermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: heredoc.Doc(permissionsCmdShort),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.AddCommand(
		permissionsListCmd(),
		permissionsSetCmd(),
	)
	return cmd
}

type permissionsListOptions struct {
	labelID string
	out     io.Writer
}

func (o *permissionsListOptions) validate() error {
	if o.labelID == "" {
		return fmt.Errorf("%w: LABEL_ID", errMissingArguments)
	}
	return nil
}

func (o *permissionsListOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	permissions, err := client.ListPermissions(ctx, o.labelID)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	if len(permissions) == 0 {
		p.Printf("No permissions found.\n")
		return nil
	}

	rows := make([][]string, 0, len(permissions))
	for _, permission := range permissions {
		rows = append(rows, []string{permission.Principal(), string(permission.Role)})
	}
	p.Table([]string{"PRINCIPAL", "ROLE"}, rows)
	return nil
}

func permissionsListCmd() *cobra.Command {
	return newLeafCommand("list LABEL_ID", permissionsListCmdShort, "", runE(func(cmd *cobra.Command, args []string) (*permissionsListOptions, error) {
		return &permissionsListOptions{labelID: argAt(args, 0), out: cmd.OutOrStdout()}, nil
	}))
}

type permissionsSetFlags struct {
	role string
}

func (f *permissionsSetFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.role, roleFlagName, "", roleFlagUsage)
}

func (f *permissionsSetFlags) toOptions(cmd *cobra.Command, args []string) (*permissionsSetOptions, error) {
	options := &permissionsSetOptions{
		labelID: argAt(args, 0),
		email:   strings.TrimSpace(argAt(args, 1)),
		out:     cmd.OutOrStdout(),
	}
	if f.role == "" {
		return options, nil
	}

	role, err := labels.ParseRole(f.role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidFlags, err)
	}
	options.role = role
	return options, nil
}

type permissionsSetOptions struct {
	labelID string
	email   string
	role    labels.Role
	out     io.Writer
}

func (o *permissionsSetOptions) validate() error {
	if o.labelID == "" || o.email == "" {
		return fmt.Errorf("%w: LABEL_ID and EMAIL", errMissingArguments)
	}
	if o.role == "" {
		return fmt.Errorf("%w: --%s is required", errInvalidFlags, roleFlagName)
	}
	return nil
}

func (o *permissionsSetOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	if _, err := client.SetPermission(ctx, o.labelID, o.email, o.role); err != nil {
		return err
	}
	id, _ := labels.ParseLabelID(o.labelID)
	recordAudit(ctx, "update_permissions", id.Base, fmt.Sprintf("Updated label permissions for %s to %s", o.email, o.role))

	newPrinter(ctx, o.out).Successf("%s is now %s on label %s", o.email, o.role, id.Base)
	return nil
}

func permissionsSetCmd() *cobra.Command {
	flags := &permissionsSetFlags{}
	cmd := newLeafCommand("set LABEL_ID EMAIL", permissionsSetCmdShort, permissionsSetExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}
