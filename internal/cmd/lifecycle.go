// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

// transition is a state change of a label.
type transition struct {
	name        string
	pastTense   string
	action      string
	destructive bool
	apply       func(ctx context.Context, client *drive.LabelClient, labelID string) (*labels.Schema, bool, error)
}

var (
	publishTransition = transition{
		name:      "publish",
		pastTense: "published",
		action:    "publish_label",
		apply: func(ctx context.Context, client *drive.LabelClient, labelID string) (*labels.Schema, bool, error) {
			return client.Publish(ctx, labelID)
		},
	}
	disableTransition = transition{
		name:        "disable",
		pastTense:   "disabled",
		action:      "disable_label",
		destructive: true,
		apply: func(ctx context.Context, client *drive.LabelClient, labelID string) (*labels.Schema, bool, error) {
			return client.Disable(ctx, labelID)
		},
	}
	enableTransition = transition{
		name:      "enable",
		pastTense: "enabled",
		action:    "enable_label",
		apply: func(ctx context.Context, client *drive.LabelClient, labelID string) (*labels.Schema, bool, error) {
			return client.Enable(ctx, labelID)
		},
	}
	deleteTransition = transition{
		name:        "delete",
		pastTense:   "deleted",
		action:      "delete_label",
		destructive: true,
		apply: func(ctx context.Context, client *drive.LabelClient, labelID string) (*labels.Schema, bool, error) {
			schema, err := client.GetLabel(ctx, labelID)
			if err != nil {
				return nil, false, err
			}
			if err := client.Delete(ctx, labelID); err != nil {
				return nil, false, err
			}
			return schema, true, nil
		},
	}
)

type transitionFlags struct {
	yes bool
}

func (f *transitionFlags) addFlags(cmd *cobra.Command, t transition) {
	if t.destructive {
		cmd.Flags().BoolVarP(&f.yes, yesFlagName, yesFlagShort, false, yesFlagUsage)
	}
}

func (f *transitionFlags) toOptions(t transition) func(*cobra.Command, []string) (*transitionOptions, error) {
	return func(cmd *cobra.Command, args []string) (*transitionOptions, error) {
		return &transitionOptions{
			transition: t,
			labelID:    argAt(args, 0),
			yes:        f.yes,
			in:         cmd.InOrStdin(),
			out:        cmd.OutOrStdout(),
		}, nil
	}
}

type transitionOptions struct {
	transition
	labelID string
	yes     bool
	in      io.Reader
	out     io.Writer
}

func (o *transitionOptions) validate() error {
	if o.labelID == "" {
		return fmt.Errorf("%w: LABEL_ID", errMissingArguments)
	}
	return nil
}

func (o *transitionOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	if o.destructive {
		if err := confirm(ctx, o.in, o.out, o.yes, fmt.Sprintf("Are you sure you want to %s label %s?", o.name, o.labelID)); err != nil {
			return err
		}
	}

	schema, changed, err := o.apply(ctx, client, o.labelID)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	if !changed {
		p.Warnf("Label '%s' (%s) is already %s", schema.Title, schema.ID, o.pastTense)
		return nil
	}

	recordAudit(ctx, o.action, schema.ID, fmt.Sprintf("Label '%s' %s", schema.Title, o.pastTense))
	p.Successf("Label '%s' (%s) %s successfully", schema.Title, schema.ID, o.pastTense)
	return nil
}

func transitionCmd(t transition) *cobra.Command {
	flags := &transitionFlags{}
	cmd := newLeafCommand(t.name+" LABEL_ID", t.name+" a label", "", nil)
	cmd.RunE = runE(flags.toOptions(t))
	flags.addFlags(cmd, t)
	return cmd
}

func labelsPublishCmd() *cobra.Command { return transitionCmd(publishTransition) }
func labelsDisableCmd() *cobra.Command { return transitionCmd(disableTransition) }
func labelsEnableCmd() *cobra.Command  { return transitionCmd(enableTransition) }
func labelsDeleteCmd() *cobra.Command  { return transitionCmd(deleteTransition) }
