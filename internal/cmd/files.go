// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/config"
	"github.com/shawncrivello/label-me-labeled/internal/csvio"
	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

const (
	filesCmdShort = "read and change the labels applied on files"
	filesCmdLong  = `Read and change the labels applied on Drive files.

	Files can be referenced by id or by any Drive, Docs, Sheets or Slides url.`

	showFileCmdShort = "show the labels applied on a file"
	applyCmdShort    = "set the value of a label field on a file"
	applyCmdExample  = `# Set the Status field of the Contract label
	drive-labels files apply https://drive.google.com/file/d/FILE_ID/view --label LABEL_ID --field FIELD_ID --value Signed`
	unsetCmdShort  = "clear the value of a label field on a file"
	removeCmdShort = "remove a label and all its values from a file"
	searchCmdShort = "search files by label or field value"
	searchCmdLong  = `Search the files that have a label applied.

	With --field the search matches the value of that field instead; supported
	operators are =, !=, <, >, <=, >=, contains, starts with, in, not in,
	is null and is not null. Values of in and not in are comma separated.`
	searchCmdExample = `# Files whose Amount is greater than 1000
	drive-labels files search --label LABEL_ID --field AMOUNT_ID --operator ">" --value 1000`
	copyLabelsCmdShort   = "copy the labels of a file on another file"
	copyLabelsCmdExample = `# Copy every label except one
	drive-labels files copy-labels SOURCE_ID TARGET_ID --exclude LABEL_ID`
	exportCmdShort   = "export the labels applied on files as csv"
	exportCmdExample = `# Export the labels of two files
	drive-labels files export FILE_1 FILE_2 --output labels.csv`

	labelFlagName     = "label"
	labelFlagUsage    = "id of the label"
	fieldFlagName     = "field"
	fieldFlagUsage    = "id of the field"
	valueFlagName     = "value"
	valueFlagUsage    = "value of the field"
	operatorFlagName  = "operator"
	operatorFlagUsage = "comparison operator used with --field"
	includeFlagName   = "include"
	includeFlagUsage  = "copy only these labels"
	excludeFlagName   = "exclude"
	excludeFlagUsage  = "do not copy these labels"
	outputFlagName    = "output"
	outputFlagShort   = "o"
	outputFlagUsage   = "path of the csv file, - for standard output"

	defaultSearchLimit = 100
	stdoutPath         = "-"
)

// FilesCmd returns the "files" command group.
func FilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: heredoc.Doc(filesCmdShort),
		Long:  heredoc.Doc(filesCmdLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.AddCommand(
		filesShowCmd(),
		filesApplyCmd(),
		filesUnsetCmd(),
		filesRemoveCmd(),
		filesSearchCmd(),
		filesCopyLabelsCmd(),
		filesExportCmd(),
	)
	return cmd
}

// fileIDArg resolves a file reference given as argument.
func fileIDArg(args []string, index int) (string, error) {
	ref := argAt(args, index)
	if ref == "" {
		return "", nil
	}

	id, err := drive.ExtractFileID(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidFlags, err)
	}
	return id, nil
}

// labelSchemas returns the schemas of the applied labels by label id. Labels that
// cannot be read are left out.
func labelSchemas(ctx context.Context, client *drive.LabelClient, applied []labels.AppliedLabel) map[string]*labels.Schema {
	schemas := make(map[string]*labels.Schema, len(applied))
	for _, label := range applied {
		if _, ok := schemas[label.LabelID]; ok {
			continue
		}
		schema, err := client.GetLabel(ctx, label.LabelID)
		if err != nil {
			continue
		}
		schemas[label.LabelID] = schema
	}
	return schemas
}

type showFileOptions struct {
	fileID string
	out    io.Writer
}

func (o *showFileOptions) validate() error {
	if o.fileID == "" {
		return fmt.Errorf("%w: FILE", errMissingArguments)
	}
	return nil
}

func (o *showFileOptions) execute(ctx context.Context) error {
	labelClient, fileClient, err := clients(ctx)
	if err != nil {
		return err
	}

	stats, err := fileClient.LabelStats(ctx, o.fileID)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	p.Titlef("%s", stats.File.Name)
	p.Printf("ID:       %s\n", stats.File.ID)
	p.Printf("Type:     %s\n", stats.File.MimeType)
	if len(stats.File.Owners) > 0 {
		owners := make([]string, 0, len(stats.File.Owners))
		for _, owner := range stats.File.Owners {
			owners = append(owners, owner.Email)
		}
		p.Printf("Owners:   %s\n", strings.Join(owners, ", "))
	}
	if stats.File.ModifiedTime != "" {
		p.Printf("Modified: %s\n", stats.File.ModifiedTime)
	}
	if stats.File.WebLink != "" {
		p.Printf("Link:     %s\n", stats.File.WebLink)
	}
	p.Printf("Labels:   %s\n", stats)

	if stats.TotalLabels == 0 {
		p.Printf("\nNo labels applied.\n")
		return nil
	}

	rows := csvio.ExportRows(stats.File, stats.Labels, labelSchemas(ctx, labelClient, stats.Labels))
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{row.LabelName, row.FieldName, string(row.FieldType), truncate(row.FieldValue, maxFieldsColumnSize)})
	}
	p.Printf("\n")
	p.Table([]string{"LABEL", "FIELD", "TYPE", "VALUE"}, table)
	return nil
}

func filesShowCmd() *cobra.Command {
	return newLeafCommand("show FILE", showFileCmdShort, "", runE(func(cmd *cobra.Command, args []string) (*showFileOptions, error) {
		fileID, err := fileIDArg(args, 0)
		if err != nil {
			return nil, err
		}
		return &showFileOptions{fileID: fileID, out: cmd.OutOrStdout()}, nil
	}))
}

// singleOperationFlags are the flags of the commands changing one label on one file.
type singleOperationFlags struct {
	labelID string
	fieldID string
	value   string
	yes     bool
}

func (f *singleOperationFlags) addFlags(cmd *cobra.Command, kind batch.Kind) {
	cmd.Flags().StringVar(&f.labelID, labelFlagName, "", labelFlagUsage)
	switch kind {
	case batch.KindApply:
		cmd.Flags().StringVar(&f.fieldID, fieldFlagName, "", fieldFlagUsage)
		cmd.Flags().StringVar(&f.value, valueFlagName, "", valueFlagUsage)
	case batch.KindUnset:
		cmd.Flags().StringVar(&f.fieldID, fieldFlagName, "", fieldFlagUsage)
	case batch.KindRemove:
		cmd.Flags().BoolVarP(&f.yes, yesFlagName, yesFlagShort, false, yesFlagUsage)
	}
}

func (f *singleOperationFlags) toOptions(kind batch.Kind) func(*cobra.Command, []string) (*singleOperationOptions, error) {
	return func(cmd *cobra.Command, args []string) (*singleOperationOptions, error) {
		fileID, err := fileIDArg(args, 0)
		if err != nil {
			return nil, err
		}

		return &singleOperationOptions{
			kind:     kind,
			fileID:   fileID,
			labelID:  strings.TrimSpace(f.labelID),
			fieldID:  strings.TrimSpace(f.fieldID),
			value:    f.value,
			hasValue: cmd.Flags().Changed(valueFlagName),
			yes:      f.yes,
			in:       cmd.InOrStdin(),
			out:      cmd.OutOrStdout(),
			errOut:   cmd.ErrOrStderr(),
		}, nil
	}
}

type singleOperationOptions struct {
	kind     batch.Kind
	fileID   string
	labelID  string
	fieldID  string
	value    string
	hasValue bool
	yes      bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (o *singleOperationOptions) validate() error {
	if o.fileID == "" {
		return fmt.Errorf("%w: FILE", errMissingArguments)
	}

	missing := make([]string, 0)
	if o.labelID == "" {
		missing = append(missing, "--"+labelFlagName)
	}
	if o.kind != batch.KindRemove && o.fieldID == "" {
		missing = append(missing, "--"+fieldFlagName)
	}
	if o.kind == batch.KindApply && !o.hasValue {
		missing = append(missing, "--"+valueFlagName)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s are required", errInvalidFlags, strings.Join(missing, ", "))
	}
	return nil
}

func (o *singleOperationOptions) execute(ctx context.Context) error {
	var value any
	if o.kind == batch.KindApply {
		value = o.value
	}

	op, err := batch.NewOperation(o.kind, o.fileID, o.labelID, o.fieldID, value)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidFlags, err)
	}

	if o.kind == batch.KindRemove {
		question := fmt.Sprintf("Remove label %s and all its values from file %s?", o.labelID, o.fileID)
		if err := confirm(ctx, o.in, o.out, o.yes, question); err != nil {
			return err
		}
	}

	settings := runSettings{config: config.FromContext(ctx).Batch()}
	_, err = runOperations(ctx, o.out, o.errOut, []batch.Operation{op}, settings)
	return err
}

func singleOperationCmd(kind batch.Kind, use, short, example string) *cobra.Command {
	flags := &singleOperationFlags{}
	cmd := newLeafCommand(use, short, example, nil)
	cmd.RunE = runE(flags.toOptions(kind))
	flags.addFlags(cmd, kind)
	return cmd
}

func filesApplyCmd() *cobra.Command {
	return singleOperationCmd(batch.KindApply, "apply FILE", applyCmdShort, applyCmdExample)
}

func filesUnsetCmd() *cobra.Command {
	return singleOperationCmd(batch.KindUnset, "unset FILE", unsetCmdShort, "")
}

func filesRemoveCmd() *cobra.Command {
	return singleOperationCmd(batch.KindRemove, "remove FILE", removeCmdShort, "")
}

type searchFlags struct {
	labelID  string
	fieldID  string
	operator string
	value    string
	limit    int
}

func (f *searchFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.labelID, labelFlagName, "", labelFlagUsage)
	cmd.Flags().StringVar(&f.fieldID, fieldFlagName, "", fieldFlagUsage)
	cmd.Flags().StringVar(&f.operator, operatorFlagName, labels.OpEqual, operatorFlagUsage)
	cmd.Flags().StringVar(&f.value, valueFlagName, "", valueFlagUsage)
	cmd.Flags().IntVar(&f.limit, limitFlagName, defaultSearchLimit, limitFlagUsage)
}

func (f *searchFlags) toOptions(cmd *cobra.Command, _ []string) (*searchOptions, error) {
	return &searchOptions{
		labelID:  strings.TrimSpace(f.labelID),
		fieldID:  strings.TrimSpace(f.fieldID),
		operator: f.operator,
		value:    f.value,
		hasValue: cmd.Flags().Changed(valueFlagName),
		limit:    f.limit,
		out:      cmd.OutOrStdout(),
	}, nil
}

type searchOptions struct {
	labelID  string
	fieldID  string
	operator string
	value    string
	hasValue bool
	limit    int
	out      io.Writer
}

func (o *searchOptions) validate() error {
	if o.labelID == "" {
		return fmt.Errorf("%w: --%s is required", errInvalidFlags, labelFlagName)
	}
	if o.limit < 0 {
		return fmt.Errorf("%w: --%s cannot be negative", errInvalidFlags, limitFlagName)
	}
	return nil
}

func (o *searchOptions) execute(ctx context.Context) error {
	labelClient, fileClient, err := clients(ctx)
	if err != nil {
		return err
	}

	query := labels.LabelPresence(o.labelID)
	if o.fieldID != "" {
		value, err := o.searchValue(ctx, labelClient)
		if err != nil {
			return err
		}
		if query, err = labels.SearchPredicate(o.labelID, o.fieldID, o.operator, value); err != nil {
			return fmt.Errorf("%w: %w", errInvalidFlags, err)
		}
	}

	files, err := fileClient.SearchFiles(ctx, query, o.limit)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	if len(files) == 0 {
		p.Printf("No files found.\n")
		return nil
	}

	rows := make([][]string, 0, len(files))
	for _, file := range files {
		owner := ""
		if len(file.Owners) > 0 {
			owner = file.Owners[0].Email
		}
		rows = append(rows, []string{file.ID, truncate(file.Name, maxFieldsColumnSize), owner, file.ModifiedTime})
	}
	p.Table([]string{"ID", "NAME", "OWNER", "MODIFIED"}, rows)
	p.Printf("\n%d files found\n", len(files))
	return nil
}

// searchValue converts the --value flag to the type of the searched field.
func (o *searchOptions) searchValue(ctx context.Context, client *drive.LabelClient) (any, error) {
	if !o.hasValue {
		return nil, nil
	}

	schema, err := client.GetLabel(ctx, o.labelID)
	if err != nil {
		return nil, err
	}
	field, ok := schema.Field(o.fieldID)
	if !ok {
		return nil, fmt.Errorf("%w: field %q not found in label %s", errInvalidFlags, o.fieldID, schema.ID)
	}

	values := []string{o.value}
	operator := strings.ToLower(strings.TrimSpace(o.operator))
	list := operator == labels.OpIn || operator == labels.OpNotIn
	if list {
		values = strings.Split(o.value, ",")
	}

	converted := make([]any, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if field.Type != labels.Integer {
			converted = append(converted, value)
			continue
		}

		integer, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", errInvalidFlags, value)
		}
		converted = append(converted, integer)
	}

	if list {
		return converted, nil
	}
	return converted[0], nil
}

func filesSearchCmd() *cobra.Command {
	flags := &searchFlags{}
	cmd := newLeafCommand("search", searchCmdShort, searchCmdExample, nil)
	cmd.Long = heredoc.Doc(searchCmdLong)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type copyLabelsFlags struct {
	include []string
	exclude []string
	yes     bool
}

func (f *copyLabelsFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.include, includeFlagName, nil, includeFlagUsage)
	cmd.Flags().StringSliceVar(&f.exclude, excludeFlagName, nil, excludeFlagUsage)
	cmd.Flags().BoolVarP(&f.yes, yesFlagName, yesFlagShort, false, yesFlagUsage)
}

func (f *copyLabelsFlags) toOptions(cmd *cobra.Command, args []string) (*copyLabelsOptions, error) {
	sourceID, err := fileIDArg(args, 0)
	if err != nil {
		return nil, err
	}
	targetID, err := fileIDArg(args, 1)
	if err != nil {
		return nil, err
	}

	return &copyLabelsOptions{
		sourceID: sourceID,
		targetID: targetID,
		include:  f.include,
		exclude:  f.exclude,
		yes:      f.yes,
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}, nil
}

type copyLabelsOptions struct {
	sourceID string
	targetID string
	include  []string
	exclude  []string
	yes      bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (o *copyLabelsOptions) validate() error {
	if o.sourceID == "" || o.targetID == "" {
		return fmt.Errorf("%w: SOURCE and TARGET", errMissingArguments)
	}
	if o.sourceID == o.targetID {
		return fmt.Errorf("%w: source and target are the same file", errInvalidFlags)
	}
	return nil
}

func (o *copyLabelsOptions) execute(ctx context.Context) error {
	_, fileClient, err := clients(ctx)
	if err != nil {
		return err
	}

	ops, err := fileClient.CopyLabels(ctx, o.sourceID, o.targetID, o.include, o.exclude)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	if len(ops) == 0 {
		p.Warnf("No label values to copy from %s", o.sourceID)
		return nil
	}

	question := fmt.Sprintf("Copy %d field values from %s to %s?", len(ops), o.sourceID, o.targetID)
	if err := confirm(ctx, o.in, o.out, o.yes, question); err != nil {
		return err
	}

	_, err = runOperations(ctx, o.out, o.errOut, ops, runSettings{config: config.FromContext(ctx).Batch()})
	return err
}

func filesCopyLabelsCmd() *cobra.Command {
	flags := &copyLabelsFlags{}
	cmd := newLeafCommand("copy-labels SOURCE TARGET", copyLabelsCmdShort, copyLabelsCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type exportFlags struct {
	output string
}

func (f *exportFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, outputFlagName, outputFlagShort, stdoutPath, outputFlagUsage)
}

func (f *exportFlags) toOptions(cmd *cobra.Command, args []string) (*exportOptions, error) {
	fileIDs := make([]string, 0, len(args))
	for index := range args {
		fileID, err := fileIDArg(args, index)
		if err != nil {
			return nil, err
		}
		if fileID != "" {
			fileIDs = append(fileIDs, fileID)
		}
	}

	return &exportOptions{
		fileIDs: fileIDs,
		output:  strings.TrimSpace(f.output),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

type exportOptions struct {
	fileIDs []string
	output  string
	out     io.Writer
	errOut  io.Writer
}

func (o *exportOptions) validate() error {
	if len(o.fileIDs) == 0 {
		return fmt.Errorf("%w: FILE", errMissingArguments)
	}
	if o.output == "" {
		return fmt.Errorf("%w: --%s cannot be empty", errInvalidFlags, outputFlagName)
	}
	return nil
}

func (o *exportOptions) execute(ctx context.Context) error {
	labelClient, fileClient, err := clients(ctx)
	if err != nil {
		return err
	}

	rows := make([]csvio.ExportRow, 0)
	schemas := make(map[string]*labels.Schema)
	for _, fileID := range o.fileIDs {
		file, err := fileClient.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		applied, err := fileClient.ListFileLabels(ctx, fileID)
		if err != nil {
			return err
		}

		for id, schema := range labelSchemas(ctx, labelClient, missingSchemas(applied, schemas)) {
			schemas[id] = schema
		}
		rows = append(rows, csvio.ExportRows(file, applied, schemas)...)
	}

	if o.output == stdoutPath {
		return csvio.WriteLabelExport(o.out, rows)
	}

	file, err := os.Create(o.output)
	if err != nil {
		return err
	}
	if err := csvio.WriteLabelExport(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	newPrinter(ctx, o.errOut).Successf("Exported %d values from %d files to %s", len(rows), len(o.fileIDs), o.output)
	return nil
}

// missingSchemas returns the applied labels whose schema is not in schemas yet.
func missingSchemas(applied []labels.AppliedLabel, schemas map[string]*labels.Schema) []labels.AppliedLabel {
	missing := make([]labels.AppliedLabel, 0, len(applied))
	for _, label := range applied {
		if _, ok := schemas[label.LabelID]; !ok {
			missing = append(missing, label)
		}
	}
	return missing
}

func filesExportCmd() *cobra.Command {
	flags := &exportFlags{}
	cmd := newLeafCommand("export FILE...", exportCmdShort, exportCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}
