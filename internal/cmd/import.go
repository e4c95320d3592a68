// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/csvio"
	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	importCmdShort   = "create labels and their fields from a csv file"
	importCmdExample = `# Create the labels described in definitions.csv and publish them
	drive-labels labels import definitions.csv --publish

	# The file has one row per field:
	# Label Title,Description,Field Name,Field Type,Required,Options
	# Contract,Legal contracts,Status,SELECTION,yes,Draft|Signed|Expired`

	publishFlagName  = "publish"
	publishFlagUsage = "publish every label after creating its fields"
)

type importFlags struct {
	publish   bool
	labelType string
}

func (f *importFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.publish, publishFlagName, false, publishFlagUsage)
	cmd.Flags().StringVar(&f.labelType, labelTypeFlagName, string(labels.LabelTypeShared), labelTypeFlagUsage)
}

func (f *importFlags) toOptions(cmd *cobra.Command, args []string) (*importOptions, error) {
	labelType, err := labels.ParseLabelType(f.labelType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidFlags, err)
	}

	return &importOptions{
		path:      argAt(args, 0),
		publish:   f.publish,
		labelType: labelType,
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
	}, nil
}

type importOptions struct {
	path      string
	publish   bool
	labelType labels.LabelType
	out       io.Writer
	errOut    io.Writer
}

func (o *importOptions) validate() error {
	if o.path == "" {
		return fmt.Errorf("%w: CSV", errMissingArguments)
	}
	return nil
}

func (o *importOptions) execute(ctx context.Context) error {
	file, err := os.Open(o.path)
	if err != nil {
		return err
	}
	defer file.Close()

	definitions, readErr := csvio.ReadLabelDefinitions(file)
	if len(definitions) == 0 {
		return readErr
	}
	printRowErrors(o.errOut, readErr)

	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx).WithName(loggerName)
	p := newPrinter(ctx, o.out)
	for _, definition := range definitions {
		schema, err := client.CreateLabel(ctx, definition.Title, definition.Description, o.labelType)
		if err != nil {
			return fmt.Errorf("create label %q: %w", definition.Title, err)
		}
		recordAudit(ctx, "create_label", schema.ID, fmt.Sprintf("Created label '%s' from %s", definition.Title, o.path))

		for _, field := range definition.Fields {
			if _, err := client.AddField(ctx, schema.ID, field); err != nil {
				return fmt.Errorf("add field %q to label %q: %w", field.Name, definition.Title, err)
			}
			log.Debug("field added", "labelId", schema.ID, "field", field.Name)
		}
		if len(definition.Fields) > 0 {
			recordAudit(ctx, "batch_add_fields", schema.ID, fmt.Sprintf("Added %d fields", len(definition.Fields)))
		}

		if o.publish {
			if _, _, err := client.Publish(ctx, schema.ID); err != nil {
				return fmt.Errorf("publish label %q: %w", definition.Title, err)
			}
			recordAudit(ctx, "publish_label", schema.ID, fmt.Sprintf("Label '%s' published", definition.Title))
		}

		p.Successf("Label '%s' created with ID %s and %d fields", definition.Title, schema.ID, len(definition.Fields))
	}

	if readErr != nil {
		return errInvalidRows
	}
	return nil
}

// printRowErrors writes every row error joined in err, one per line.
func printRowErrors(out io.Writer, err error) {
	if err == nil {
		return
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		fmt.Fprintln(out, err)
		return
	}
	for _, rowErr := range joined.Unwrap() {
		fmt.Fprintln(out, rowErr)
	}
}

func labelsImportCmd() *cobra.Command {
	flags := &importFlags{}
	cmd := newLeafCommand("import CSV", importCmdShort, importCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	cmd.ValidArgsFunction = nil // complete the csv path
	flags.addFlags(cmd)
	return cmd
}
