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
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

const (
	fieldCmdShort = "manage the fields of a label"
	fieldCmdLong  = `Manage the fields of a label.

	Field changes land in the draft of the label: publish it for them to take
	effect. A published field must be disabled before it can be deleted.`

	fieldUpdateCmdShort   = "change the name or the required flag of a field"
	fieldUpdateCmdExample = `# Rename a field and make it optional
	drive-labels labels field update LABEL_ID FIELD_ID --name "Counterparty" --required=false`

	updateChoiceCmdShort   = "change the name or the badge color of a selection option"
	updateChoiceCmdExample = `# Color the "Signed" option green
	drive-labels labels field update-choice LABEL_ID status Signed --color "#34A853"`

	fieldNameFlagName  = "name"
	fieldNameFlagUsage = "new display name"
	colorFlagName      = "color"
	colorFlagUsage     = "badge color of the option as #RRGGBB"
	fieldRequiredUsage = "whether the field is required, use --required=false to make it optional"
)

// fieldChange is a lifecycle change of a single field.
type fieldChange struct {
	name        string
	pastTense   string
	action      string
	destructive bool
	apply       func(ctx context.Context, client *drive.LabelClient, labelID, fieldID string) (*labels.Schema, error)
}

var (
	disableFieldChange = fieldChange{
		name:        "disable",
		pastTense:   "disabled",
		action:      "disable_field",
		destructive: true,
		apply: func(ctx context.Context, client *drive.LabelClient, labelID, fieldID string) (*labels.Schema, error) {
			return client.DisableField(ctx, labelID, fieldID)
		},
	}
	enableFieldChange = fieldChange{
		name:      "enable",
		pastTense: "enabled",
		action:    "enable_field",
		apply: func(ctx context.Context, client *drive.LabelClient, labelID, fieldID string) (*labels.Schema, error) {
			return client.EnableField(ctx, labelID, fieldID)
		},
	}
	deleteFieldChange = fieldChange{
		name:        "delete",
		pastTense:   "deleted",
		action:      "delete_field",
		destructive: true,
		apply: func(ctx context.Context, client *drive.LabelClient, labelID, fieldID string) (*labels.Schema, error) {
			return client.DeleteField(ctx, labelID, fieldID)
		},
	}
)

// LabelsFieldCmd returns the "labels field" command group.
func LabelsFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: heredoc.Doc(fieldCmdShort),
		Long:  heredoc.Doc(fieldCmdLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.AddCommand(
		fieldUpdateCmd(),
		fieldChangeCmd(disableFieldChange),
		fieldChangeCmd(enableFieldChange),
		fieldChangeCmd(deleteFieldChange),
		fieldUpdateChoiceCmd(),
	)
	return cmd
}

type fieldChangeFlags struct {
	yes bool
}

func (f *fieldChangeFlags) toOptions(change fieldChange) func(*cobra.Command, []string) (*fieldChangeOptions, error) {
	return func(cmd *cobra.Command, args []string) (*fieldChangeOptions, error) {
		return &fieldChangeOptions{
			fieldChange: change,
			labelID:     argAt(args, 0),
			fieldID:     argAt(args, 1),
			yes:         f.yes,
			in:          cmd.InOrStdin(),
			out:         cmd.OutOrStdout(),
		}, nil
	}
}

type fieldChangeOptions struct {
	fieldChange
	labelID string
	fieldID string
	yes     bool
	in      io.Reader
	out     io.Writer
}

func (o *fieldChangeOptions) validate() error {
	if o.labelID == "" || o.fieldID == "" {
		return fmt.Errorf("%w: LABEL_ID and FIELD_ID", errMissingArguments)
	}
	return nil
}

func (o *fieldChangeOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	if o.destructive {
		question := fmt.Sprintf("Are you sure you want to %s field %s of label %s?", o.name, o.fieldID, o.labelID)
		if err := confirm(ctx, o.in, o.out, o.yes, question); err != nil {
			return err
		}
	}

	schema, err := o.apply(ctx, client, o.labelID, o.fieldID)
	if err != nil {
		return err
	}
	recordAudit(ctx, o.action, schema.ID+"/"+o.fieldID, fmt.Sprintf("Field %s %s", o.fieldID, o.pastTense))

	p := newPrinter(ctx, o.out)
	p.Successf("Field %s of label %s %s successfully", o.fieldID, schema.ID, o.pastTense)
	printPublishHint(p, schema)
	return nil
}

func fieldChangeCmd(change fieldChange) *cobra.Command {
	flags := &fieldChangeFlags{}
	cmd := newLeafCommand(change.name+" LABEL_ID FIELD_ID", change.name+" a field", "", nil)
	cmd.RunE = runE(flags.toOptions(change))
	if change.destructive {
		cmd.Flags().BoolVarP(&flags.yes, yesFlagName, yesFlagShort, false, yesFlagUsage)
	}
	return cmd
}

type fieldUpdateFlags struct {
	name     string
	required bool
}

func (f *fieldUpdateFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, fieldNameFlagName, "", fieldNameFlagUsage)
	cmd.Flags().BoolVar(&f.required, requiredFlagName, false, fieldRequiredUsage)
}

func (f *fieldUpdateFlags) toOptions(cmd *cobra.Command, args []string) (*fieldUpdateOptions, error) {
	options := &fieldUpdateOptions{
		labelID: argAt(args, 0),
		fieldID: argAt(args, 1),
		out:     cmd.OutOrStdout(),
	}
	if cmd.Flags().Changed(fieldNameFlagName) {
		name := strings.TrimSpace(f.name)
		options.update.Name = &name
	}
	if cmd.Flags().Changed(requiredFlagName) {
		required := f.required
		options.update.Required = &required
	}
	return options, nil
}

type fieldUpdateOptions struct {
	labelID string
	fieldID string
	update  drive.FieldUpdate
	out     io.Writer
}

func (o *fieldUpdateOptions) validate() error {
	if o.labelID == "" || o.fieldID == "" {
		return fmt.Errorf("%w: LABEL_ID and FIELD_ID", errMissingArguments)
	}
	if o.update.Name == nil && o.update.Required == nil {
		return fmt.Errorf("%w: set --%s or --%s", errInvalidFlags, fieldNameFlagName, requiredFlagName)
	}
	if o.update.Name != nil && *o.update.Name == "" {
		return fmt.Errorf("%w: --%s cannot be empty", errInvalidFlags, fieldNameFlagName)
	}
	return nil
}

func (o *fieldUpdateOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.UpdateField(ctx, o.labelID, o.fieldID, o.update)
	if err != nil {
		return err
	}

	changes := make([]string, 0, 2)
	if o.update.Name != nil {
		changes = append(changes, fmt.Sprintf("name to '%s'", *o.update.Name))
	}
	if o.update.Required != nil {
		changes = append(changes, fmt.Sprintf("required to %t", *o.update.Required))
	}
	recordAudit(ctx, "update_field", schema.ID+"/"+o.fieldID, "Set "+strings.Join(changes, " and "))

	p := newPrinter(ctx, o.out)
	p.Successf("Field %s of label %s updated", o.fieldID, schema.ID)
	printPublishHint(p, schema)
	return nil
}

func fieldUpdateCmd() *cobra.Command {
	flags := &fieldUpdateFlags{}
	cmd := newLeafCommand("update LABEL_ID FIELD_ID", fieldUpdateCmdShort, fieldUpdateCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type updateChoiceFlags struct {
	name  string
	color string
}

func (f *updateChoiceFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, fieldNameFlagName, "", fieldNameFlagUsage)
	cmd.Flags().StringVar(&f.color, colorFlagName, "", colorFlagUsage)
}

func (f *updateChoiceFlags) toOptions(cmd *cobra.Command, args []string) (*updateChoiceOptions, error) {
	return &updateChoiceOptions{
		labelID: argAt(args, 0),
		fieldID: argAt(args, 1),
		choice:  argAt(args, 2),
		update: drive.ChoiceUpdate{
			Name:  strings.TrimSpace(f.name),
			Color: strings.TrimSpace(f.color),
		},
		out: cmd.OutOrStdout(),
	}, nil
}

type updateChoiceOptions struct {
	labelID string
	fieldID string
	choice  string
	update  drive.ChoiceUpdate
	out     io.Writer
}

func (o *updateChoiceOptions) validate() error {
	if o.labelID == "" || o.fieldID == "" || o.choice == "" {
		return fmt.Errorf("%w: LABEL_ID, FIELD_ID and CHOICE", errMissingArguments)
	}
	if o.update.Name == "" && o.update.Color == "" {
		return fmt.Errorf("%w: set --%s or --%s", errInvalidFlags, fieldNameFlagName, colorFlagName)
	}
	return nil
}

func (o *updateChoiceOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.UpdateChoice(ctx, o.labelID, o.fieldID, o.choice, o.update)
	if err != nil {
		return err
	}

	changes := make([]string, 0, 2)
	if o.update.Name != "" {
		changes = append(changes, fmt.Sprintf("name to '%s'", o.update.Name))
	}
	if o.update.Color != "" {
		changes = append(changes, "color to "+o.update.Color)
	}
	target := schema.ID + "/" + o.fieldID + "/" + o.choice
	recordAudit(ctx, "update_selection_choice", target, "Set "+strings.Join(changes, " and "))

	p := newPrinter(ctx, o.out)
	p.Successf("Option '%s' of field %s updated", o.choice, o.fieldID)
	printPublishHint(p, schema)
	return nil
}

func fieldUpdateChoiceCmd() *cobra.Command {
	flags := &updateChoiceFlags{}
	cmd := newLeafCommand("update-choice LABEL_ID FIELD_ID CHOICE", updateChoiceCmdShort, updateChoiceCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

func printPublishHint(p *printer, schema *labels.Schema) {
	if schema.State != labels.StatePublished || schema.HasUnpublishedChanges {
		p.Printf("Publish the label for the change to take effect:\n  drive-labels labels publish %s\n", schema.ID)
	}
}
