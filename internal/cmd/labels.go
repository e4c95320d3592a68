// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

const (
	labelsCmdShort = "manage label definitions"
	labelsCmdLong  = `Manage the definitions of the Drive labels.

	A new label starts as an unpublished draft: add its fields, then publish it
	to make it available on files. Published labels can be disabled, and only
	disabled labels can be deleted.`

	listCmdShort   = "list the labels visible to the caller"
	listCmdExample = `# List every published label whose title contains "contract"
	drive-labels labels list --published-only --search contract`

	showCmdShort = "show the definition of a label"

	createCmdShort   = "create a new draft label"
	createCmdExample = `# Create a shared label
	drive-labels labels create "Contract" --description "Legal contracts"`

	updateCmdShort = "change the title or the description of a label"

	addFieldCmdShort   = "add a field to the draft of a label"
	addFieldCmdExample = `# Add a selection field with three options
	drive-labels labels add-field LABEL_ID Status --type SELECTION --options Draft,Signed,Expired`

	addChoiceCmdShort = "add an option to a selection field"

	maxFieldsColumnSize = 40

	publishedOnlyFlagName  = "published-only"
	publishedOnlyFlagUsage = "list only published labels"
	searchFlagName         = "search"
	searchFlagUsage        = "keep only labels whose title contains this text"
	limitFlagName          = "limit"
	limitFlagUsage         = "maximum number of results, 0 for no limit"

	descriptionFlagName  = "description"
	descriptionFlagUsage = "description of the label"
	titleFlagName        = "title"
	titleFlagUsage       = "new title of the label"
	labelTypeFlagName    = "type"
	labelTypeFlagUsage   = "type of the label, ADMIN or SHARED"

	fieldTypeFlagName   = "type"
	fieldTypeFlagUsage  = "type of the field: TEXT, LONG_TEXT, INTEGER, DATE, USER or SELECTION"
	requiredFlagName    = "required"
	requiredFlagUsage   = "make the field required"
	optionsFlagName     = "options"
	optionsFlagUsage    = "comma separated options of a SELECTION field"
	maxEntriesFlagName  = "max-entries"
	maxEntriesFlagUsage = "maximum number of values a USER field can hold"
)

// LabelsCmd returns the "labels" command group.
func LabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: heredoc.Doc(labelsCmdShort),
		Long:  heredoc.Doc(labelsCmdLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.AddCommand(
		labelsListCmd(),
		labelsShowCmd(),
		labelsCreateCmd(),
		labelsUpdateCmd(),
		labelsAddFieldCmd(),
		labelsAddChoiceCmd(),
		LabelsFieldCmd(),
		LabelsPermissionsCmd(),
		labelsPublishCmd(),
		labelsDisableCmd(),
		labelsEnableCmd(),
		labelsDeleteCmd(),
		labelsImportCmd(),
	)
	return cmd
}

func newLeafCommand(use, short, example string, run func(*cobra.Command, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   heredoc.Doc(short),
		Example: heredoc.Doc(example),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE:              run,
	}
}

type listFlags struct {
	publishedOnly bool
	search        string
	limit         int
}

func (f *listFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.publishedOnly, publishedOnlyFlagName, false, publishedOnlyFlagUsage)
	cmd.Flags().StringVar(&f.search, searchFlagName, "", searchFlagUsage)
	cmd.Flags().IntVar(&f.limit, limitFlagName, 0, limitFlagUsage)
}

func (f *listFlags) toOptions(cmd *cobra.Command, _ []string) (*listOptions, error) {
	return &listOptions{
		query: drive.ListOptions{PublishedOnly: f.publishedOnly, Filter: strings.TrimSpace(f.search), Limit: f.limit},
		out:   cmd.OutOrStdout(),
	}, nil
}

type listOptions struct {
	query drive.ListOptions
	out   io.Writer
}

func (o *listOptions) validate() error {
	if o.query.Limit < 0 {
		return fmt.Errorf("%w: --%s cannot be negative", errInvalidFlags, limitFlagName)
	}
	return nil
}

func (o *listOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schemas, err := client.ListLabels(ctx, o.query)
	if err != nil {
		return err
	}

	p := newPrinter(ctx, o.out)
	if len(schemas) == 0 {
		p.Printf("No labels found.\n")
		return nil
	}

	rows := make([][]string, 0, len(schemas))
	for _, schema := range schemas {
		names := make([]string, 0, len(schema.Fields))
		for _, field := range schema.Fields {
			names = append(names, field.Name)
		}
		fields := "None"
		if len(names) > 0 {
			fields = truncate(strings.Join(names, ", "), maxFieldsColumnSize)
		}
		rows = append(rows, []string{schema.ID, schema.Title, string(schema.State), fields})
	}
	p.Table([]string{"ID", "TITLE", "STATE", "FIELDS"}, rows)
	return nil
}

func labelsListCmd() *cobra.Command {
	flags := &listFlags{}
	cmd := newLeafCommand("list", listCmdShort, listCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type showOptions struct {
	labelID string
	out     io.Writer
}

func (o *showOptions) validate() error {
	if o.labelID == "" {
		return fmt.Errorf("%w: LABEL_ID", errMissingArguments)
	}
	return nil
}

func (o *showOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.GetLabel(ctx, o.labelID)
	if err != nil {
		return err
	}

	printSchema(newPrinter(ctx, o.out), schema)
	return nil
}

func printSchema(p *printer, schema *labels.Schema) {
	p.Titlef("%s", schema.Title)
	p.Printf("ID:          %s\n", schema.ID)
	p.Printf("Revision:    %s\n", schema.RevisionID)
	p.Printf("Type:        %s\n", schema.LabelType)
	p.Printf("State:       %s\n", schema.State)
	if schema.HasUnpublishedChanges {
		p.Printf("Draft:       has unpublished changes\n")
	}
	if schema.Description != "" {
		p.Printf("Description: %s\n", schema.Description)
	}

	if len(schema.Fields) == 0 {
		p.Printf("Fields:      None\n")
		return
	}

	p.Printf("Fields:\n")
	for _, field := range schema.Fields {
		details := []string{string(field.Type)}
		if field.Required {
			details = append(details, "required")
		}
		if field.MaxEntries > 1 {
			details = append(details, "up to "+strconv.FormatInt(field.MaxEntries, 10)+" values")
		}
		p.Printf("  - %s (%s): %s\n", field.Name, field.ID, strings.Join(details, ", "))
		for _, choice := range field.Options {
			p.Printf("      * %s (%s)\n", choice.Name, choice.ID)
		}
	}
}

func labelsShowCmd() *cobra.Command {
	return newLeafCommand("show LABEL_ID", showCmdShort, "", runE(func(cmd *cobra.Command, args []string) (*showOptions, error) {
		return &showOptions{labelID: argAt(args, 0), out: cmd.OutOrStdout()}, nil
	}))
}

type createFlags struct {
	description string
	labelType   string
}

func (f *createFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, descriptionFlagName, "", descriptionFlagUsage)
	cmd.Flags().StringVar(&f.labelType, labelTypeFlagName, string(labels.LabelTypeShared), labelTypeFlagUsage)
}

func (f *createFlags) toOptions(cmd *cobra.Command, args []string) (*createOptions, error) {
	labelType, err := labels.ParseLabelType(f.labelType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidFlags, err)
	}

	return &createOptions{
		title:       argAt(args, 0),
		description: f.description,
		labelType:   labelType,
		out:         cmd.OutOrStdout(),
	}, nil
}

type createOptions struct {
	title       string
	description string
	labelType   labels.LabelType
	out         io.Writer
}

func (o *createOptions) validate() error {
	if o.title == "" {
		return fmt.Errorf("%w: TITLE", errMissingArguments)
	}
	return nil
}

func (o *createOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.CreateLabel(ctx, o.title, o.description, o.labelType)
	if err != nil {
		return err
	}
	recordAudit(ctx, "create_label", schema.ID, fmt.Sprintf("Created label '%s'", o.title))

	p := newPrinter(ctx, o.out)
	p.Successf("Label '%s' created with ID: %s", o.title, schema.ID)
	p.Printf("The label is an unpublished draft: add its fields, then publish it with\n  drive-labels labels publish %s\n", schema.ID)
	return nil
}

func labelsCreateCmd() *cobra.Command {
	flags := &createFlags{}
	cmd := newLeafCommand("create TITLE", createCmdShort, createCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type updateFlags struct {
	title       string
	description string
}

func (f *updateFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, titleFlagName, "", titleFlagUsage)
	cmd.Flags().StringVar(&f.description, descriptionFlagName, "", descriptionFlagUsage)
}

func (f *updateFlags) toOptions(cmd *cobra.Command, args []string) (*updateOptions, error) {
	return &updateOptions{
		labelID:     argAt(args, 0),
		title:       strings.TrimSpace(f.title),
		description: strings.TrimSpace(f.description),
		out:         cmd.OutOrStdout(),
	}, nil
}

type updateOptions struct {
	labelID     string
	title       string
	description string
	out         io.Writer
}

func (o *updateOptions) validate() error {
	if o.labelID == "" {
		return fmt.Errorf("%w: LABEL_ID", errMissingArguments)
	}
	if o.title == "" && o.description == "" {
		return fmt.Errorf("%w: set --%s or --%s", errInvalidFlags, titleFlagName, descriptionFlagName)
	}
	return nil
}

func (o *updateOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.UpdateLabel(ctx, o.labelID, o.title, o.description)
	if err != nil {
		return err
	}
	recordAudit(ctx, "update_label", schema.ID, fmt.Sprintf("Updated label '%s'", schema.Title))

	newPrinter(ctx, o.out).Successf("Label '%s' (%s) updated", schema.Title, schema.ID)
	return nil
}

func labelsUpdateCmd() *cobra.Command {
	flags := &updateFlags{}
	cmd := newLeafCommand("update LABEL_ID", updateCmdShort, "", nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type addFieldFlags struct {
	fieldType  string
	required   bool
	options    []string
	maxEntries int64
}

func (f *addFieldFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fieldType, fieldTypeFlagName, string(labels.Text), fieldTypeFlagUsage)
	cmd.Flags().BoolVar(&f.required, requiredFlagName, false, requiredFlagUsage)
	cmd.Flags().StringSliceVar(&f.options, optionsFlagName, nil, optionsFlagUsage)
	cmd.Flags().Int64Var(&f.maxEntries, maxEntriesFlagName, 0, maxEntriesFlagUsage)
}

func (f *addFieldFlags) toOptions(cmd *cobra.Command, args []string) (*addFieldOptions, error) {
	fieldType, err := labels.ParseFieldType(strings.ToUpper(strings.TrimSpace(f.fieldType)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidFlags, err)
	}

	return &addFieldOptions{
		labelID:    argAt(args, 0),
		name:       argAt(args, 1),
		fieldType:  fieldType,
		required:   f.required,
		options:    f.options,
		maxEntries: f.maxEntries,
		out:        cmd.OutOrStdout(),
	}, nil
}

type addFieldOptions struct {
	labelID    string
	name       string
	fieldType  labels.FieldType
	required   bool
	options    []string
	maxEntries int64
	out        io.Writer

	definition labels.FieldDefinition
}

func (o *addFieldOptions) validate() error {
	if o.labelID == "" || o.name == "" {
		return fmt.Errorf("%w: LABEL_ID and NAME", errMissingArguments)
	}

	definition, err := labels.NewFieldDefinition(o.name, o.fieldType, o.required, o.options, o.maxEntries)
	if err != nil {
		return err
	}
	o.definition = definition
	return nil
}

func (o *addFieldOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.AddField(ctx, o.labelID, o.definition)
	if err != nil {
		return err
	}
	recordAudit(ctx, "add_field", schema.ID+"/"+o.definition.ID, fmt.Sprintf("Added %s field '%s'", o.fieldType, o.name))

	p := newPrinter(ctx, o.out)
	p.Successf("Field '%s' added to label %s", o.name, schema.ID)
	printPublishHint(p, schema)
	return nil
}

func labelsAddFieldCmd() *cobra.Command {
	flags := &addFieldFlags{}
	cmd := newLeafCommand("add-field LABEL_ID NAME", addFieldCmdShort, addFieldCmdExample, nil)
	cmd.RunE = runE(flags.toOptions)
	flags.addFlags(cmd)
	return cmd
}

type addChoiceOptions struct {
	labelID string
	fieldID string
	name    string
	out     io.Writer
}

func (o *addChoiceOptions) validate() error {
	if o.labelID == "" || o.fieldID == "" || o.name == "" {
		return fmt.Errorf("%w: LABEL_ID, FIELD_ID and NAME", errMissingArguments)
	}
	return nil
}

func (o *addChoiceOptions) execute(ctx context.Context) error {
	client, err := labelClient(ctx)
	if err != nil {
		return err
	}

	schema, err := client.AddChoice(ctx, o.labelID, o.fieldID, o.name)
	if err != nil {
		return err
	}
	recordAudit(ctx, "add_selection_choice", schema.ID+"/"+o.fieldID, fmt.Sprintf("Added option '%s'", o.name))

	newPrinter(ctx, o.out).Successf("Option '%s' added to field %s of label %s", o.name, o.fieldID, schema.ID)
	return nil
}

func labelsAddChoiceCmd() *cobra.Command {
	return newLeafCommand("add-choice LABEL_ID FIELD_ID NAME", addChoiceCmdShort, "", runE(func(cmd *cobra.Command, args []string) (*addChoiceOptions, error) {
		return &addChoiceOptions{
			labelID: argAt(args, 0),
			fieldID: argAt(args, 1),
			name:    argAt(args, 2),
			out:     cmd.OutOrStdout(),
		}, nil
	}))
}
