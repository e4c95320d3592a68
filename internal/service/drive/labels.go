// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drivelabels/v2"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	labelViewFull = "LABEL_VIEW_FULL"
	listPageSize  = 200
)

var _ batch.LabelCatalog = &LabelClient{}

// LabelClient manages label definitions.
type LabelClient struct {
	api         *drivelabels.Service
	adminAccess bool
}

// ListOptions filters ListLabels.
type ListOptions struct {
	PublishedOnly bool
	// Filter keeps labels whose title contains it, case insensitive.
	Filter string
	// Limit caps the number of labels returned. Zero means no cap.
	Limit int
}

// GetLabel returns the full definition of labelID. Revisions in labelID are ignored.
func (c *LabelClient) GetLabel(ctx context.Context, labelID string) (*labels.Schema, error) {
	id, err := labels.ParseLabelID(labelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", batch.ErrNotFound, err)
	}

	label, err := c.api.Labels.Get(id.ResourceName()).
		View(labelViewFull).
		UseAdminAccess(c.adminAccess).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("get label "+id.Base, err)
	}

	return toSchema(label), nil
}

// ListLabels returns the labels visible to the caller, following every page.
func (c *LabelClient) ListLabels(ctx context.Context, options ListOptions) ([]*labels.Schema, error) {
	filter := strings.ToLower(options.Filter)
	schemas := make([]*labels.Schema, 0)

	call := c.api.Labels.List().
		View(labelViewFull).
		PublishedOnly(options.PublishedOnly).
		PageSize(listPageSize)
	if c.adminAccess && !options.PublishedOnly {
		call = call.UseAdminAccess(true)
	}

	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, classify("list labels", err)
		}

		for _, label := range response.Labels {
			schema := toSchema(label)
			if filter != "" && !strings.Contains(strings.ToLower(schema.Title), filter) {
				continue
			}

			schemas = append(schemas, schema)
			if options.Limit > 0 && len(schemas) >= options.Limit {
				return schemas, nil
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			return schemas, nil
		}
	}
}

// CreateLabel creates an unpublished label without fields.
func (c *LabelClient) CreateLabel(ctx context.Context, title, description string, labelType labels.LabelType) (*labels.Schema, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: label title is required", labels.ErrInvalidField)
	}
	if labelType == "" {
		labelType = labels.LabelTypeShared
	}

	label, err := c.api.Labels.Create(&drivelabels.GoogleAppsDriveLabelsV2Label{
		LabelType: string(labelType),
		Properties: &drivelabels.GoogleAppsDriveLabelsV2LabelProperties{
			Title:       title,
			Description: description,
		},
	}).UseAdminAccess(c.adminAccess).Context(ctx).Do()
	if err != nil {
		return nil, classify("create label", err)
	}

	schema := toSchema(label)
	logger.FromContext(ctx).WithName(loggerName).Info("label created", "labelId", schema.ID, "title", title)
	return schema, nil
}

// UpdateLabel changes the title and the description of labelID. Empty values are left untouched.
func (c *LabelClient) UpdateLabel(ctx context.Context, labelID, title, description string) (*labels.Schema, error) {
	properties := &drivelabels.GoogleAppsDriveLabelsV2LabelProperties{Title: title, Description: description}
	mask := make([]string, 0, 2)
	if title != "" {
		mask = append(mask, "title")
	}
	if description != "" {
		mask = append(mask, "description")
	}
	if len(mask) == 0 {
		return c.GetLabel(ctx, labelID)
	}

	return c.delta(ctx, "update label", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		UpdateLabel: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestUpdateLabelPropertiesRequest{
			Properties: properties,
			UpdateMask: strings.Join(mask, ","),
		},
	})
}

// AddField adds definition to the draft of labelID.
func (c *LabelClient) AddField(ctx context.Context, labelID string, definition labels.FieldDefinition) (*labels.Schema, error) {
	if !definition.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", labels.ErrUnsupportedFieldType, definition.Type)
	}

	return c.delta(ctx, "add field", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		CreateField: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestCreateFieldRequest{
			Field: fromFieldDefinition(definition),
		},
	})
}

// AddChoice adds an option named name to the SELECTION field fieldID of labelID.
func (c *LabelClient) AddChoice(ctx context.Context, labelID, fieldID, name string) (*labels.Schema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: option name is required", labels.ErrInvalidField)
	}

	return c.delta(ctx, "add choice", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		CreateSelectionChoice: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestCreateSelectionChoiceRequest{
			FieldId: fieldID,
			Choice:  newChoice(name),
		},
	})
}

func (c *LabelClient) delta(ctx context.Context, op, labelID string, request *drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest) (*labels.Schema, error) {
	id, err := labels.ParseLabelID(labelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", batch.ErrNotFound, err)
	}

	response, err := c.api.Labels.Delta(id.ResourceName(), &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequest{
		Requests:       []*drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{request},
		UseAdminAccess: c.adminAccess,
		View:           labelViewFull,
	}).Context(ctx).Do()
	if err != nil {
		return nil, classify(op+" "+id.Base, err)
	}

	logger.FromContext(ctx).WithName(loggerName).Info("label updated", "labelId", id.Base, "change", op)
	if response.UpdatedLabel == nil {
		return c.GetLabel(ctx, id.Base)
	}
	return toSchema(response.UpdatedLabel), nil
}

// Publish publishes the draft of labelID. Labels already published without pending
// changes are returned untouched and changed is false.
func (c *LabelClient) Publish(ctx context.Context, labelID string) (schema *labels.Schema, changed bool, err error) {
	schema, err = c.GetLabel(ctx, labelID)
	if err != nil {
		return nil, false, err
	}
	if schema.State == labels.StatePublished && !schema.HasUnpublishedChanges {
		return schema, false, nil
	}

	label, err := c.api.Labels.Publish(labels.LabelID{Base: schema.ID}.ResourceName(), &drivelabels.GoogleAppsDriveLabelsV2PublishLabelRequest{
		UseAdminAccess: c.adminAccess,
	}).Context(ctx).Do()
	if err != nil {
		return nil, false, classify("publish label "+schema.ID, err)
	}

	return toSchema(label), true, nil
}

// Disable disables labelID so that it can no longer be applied. Disabled labels are
// returned untouched and changed is false.
func (c *LabelClient) Disable(ctx context.Context, labelID string) (schema *labels.Schema, changed bool, err error) {
	schema, err = c.GetLabel(ctx, labelID)
	if err != nil {
		return nil, false, err
	}
	if schema.State == labels.StateDisabled {
		return schema, false, nil
	}

	label, err := c.api.Labels.Disable(labels.LabelID{Base: schema.ID}.ResourceName(), &drivelabels.GoogleAppsDriveLabelsV2DisableLabelRequest{
		UseAdminAccess: c.adminAccess,
	}).Context(ctx).Do()
	if err != nil {
		return nil, false, classify("disable label "+schema.ID, err)
	}

	return toSchema(label), true, nil
}

// Enable enables a disabled labelID. Published labels are returned untouched and
// changed is false.
func (c *LabelClient) Enable(ctx context.Context, labelID string) (schema *labels.Schema, changed bool, err error) {
	schema, err = c.GetLabel(ctx, labelID)
	if err != nil {
		return nil, false, err
	}
	if schema.State == labels.StatePublished {
		return schema, false, nil
	}

	label, err := c.api.Labels.Enable(labels.LabelID{Base: schema.ID}.ResourceName(), &drivelabels.GoogleAppsDriveLabelsV2EnableLabelRequest{
		UseAdminAccess: c.adminAccess,
	}).Context(ctx).Do()
	if err != nil {
		return nil, false, classify("enable label "+schema.ID, err)
	}

	return toSchema(label), true, nil
}

// Delete permanently deletes labelID, which must be disabled first.
func (c *LabelClient) Delete(ctx context.Context, labelID string) error {
	schema, err := c.GetLabel(ctx, labelID)
	if err != nil {
		return err
	}
	if schema.State != labels.StateDisabled {
		return fmt.Errorf("%w: label %s is %s, disable it before deleting it", ErrInvalidState, schema.ID, schema.State)
	}

	if _, err := c.api.Labels.Delete(labels.LabelID{Base: schema.ID}.ResourceName()).
		UseAdminAccess(c.adminAccess).
		Context(ctx).
		Do(); err != nil {
		return classify("delete label "+schema.ID, err)
	}

	logger.FromContext(ctx).WithName(loggerName).Info("label deleted", "labelId", schema.ID)
	return nil
}

// FieldUpdate lists the properties UpdateField changes. Nil values are left untouched.
type FieldUpdate struct {
	Name     *string
	Required *bool
}

// UpdateField changes the display name or the required flag of fieldID.
func (c *LabelClient) UpdateField(ctx context.Context, labelID, fieldID string, update FieldUpdate) (*labels.Schema, error) {
	field, err := c.field(ctx, labelID, fieldID)
	if err != nil {
		return nil, err
	}

	properties := &drivelabels.GoogleAppsDriveLabelsV2FieldProperties{DisplayName: field.Name, Required: field.Required}
	mask := make([]string, 0, 2)
	if update.Name != nil {
		if strings.TrimSpace(*update.Name) == "" {
			return nil, fmt.Errorf("%w: field name cannot be empty", labels.ErrInvalidField)
		}
		properties.DisplayName = *update.Name
		mask = append(mask, "displayName")
	}
	if update.Required != nil {
		properties.Required = *update.Required
		properties.ForceSendFields = []string{"Required"}
		mask = append(mask, "required")
	}
	if len(mask) == 0 {
		return nil, fmt.Errorf("%w: nothing to update on field %s", labels.ErrInvalidField, field.ID)
	}

	return c.delta(ctx, "update field", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		UpdateField: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestUpdateFieldPropertiesRequest{
			Id:         field.ID,
			Properties: properties,
			UpdateMask: strings.Join(mask, ","),
		},
	})
}

// DisableField disables fieldID. Disabled fields stay searchable but can no longer be applied.
func (c *LabelClient) DisableField(ctx context.Context, labelID, fieldID string) (*labels.Schema, error) {
	return c.delta(ctx, "disable field", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		DisableField: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestDisableFieldRequest{
			Id:             trimFieldID(fieldID),
			DisabledPolicy: &drivelabels.GoogleAppsDriveLabelsV2LifecycleDisabledPolicy{},
			UpdateMask:     "disabledPolicy",
		},
	})
}

// EnableField enables a disabled fieldID.
func (c *LabelClient) EnableField(ctx context.Context, labelID, fieldID string) (*labels.Schema, error) {
	return c.delta(ctx, "enable field", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		EnableField: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestEnableFieldRequest{
			Id: trimFieldID(fieldID),
		},
	})
}

// DeleteField removes fieldID from the draft of labelID. Published fields must be
// disabled first.
func (c *LabelClient) DeleteField(ctx context.Context, labelID, fieldID string) (*labels.Schema, error) {
	return c.delta(ctx, "delete field", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		DeleteField: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestDeleteFieldRequest{
			Id: trimFieldID(fieldID),
		},
	})
}

// ChoiceUpdate lists the properties UpdateChoice changes. Empty values are left untouched.
type ChoiceUpdate struct {
	Name string
	// Color is the badge color as #RRGGBB.
	Color string
}

// UpdateChoice changes an option of the SELECTION field fieldID. choice is an option
// id or display name.
func (c *LabelClient) UpdateChoice(ctx context.Context, labelID, fieldID, choice string, update ChoiceUpdate) (*labels.Schema, error) {
	field, err := c.field(ctx, labelID, fieldID)
	if err != nil {
		return nil, err
	}
	if field.Type != labels.Selection {
		return nil, fmt.Errorf("%w: field %s is %s, not %s", labels.ErrInvalidField, field.ID, field.Type, labels.Selection)
	}
	choiceID, ok := field.ChoiceID(choice)
	if !ok {
		return nil, fmt.Errorf("%w: option %q of field %s", batch.ErrNotFound, choice, field.ID)
	}

	properties := &drivelabels.GoogleAppsDriveLabelsV2FieldSelectionOptionsChoiceProperties{DisplayName: update.Name}
	mask := make([]string, 0, 2)
	if update.Name != "" {
		mask = append(mask, "displayName")
	}
	if update.Color != "" {
		color, err := toColor(update.Color)
		if err != nil {
			return nil, err
		}
		properties.BadgeConfig = &drivelabels.GoogleAppsDriveLabelsV2BadgeConfig{Color: color}
		mask = append(mask, "badgeConfig.color")
	}
	if len(mask) == 0 {
		return nil, fmt.Errorf("%w: nothing to update on option %s", labels.ErrInvalidField, choiceID)
	}

	return c.delta(ctx, "update choice", labelID, &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestRequest{
		UpdateSelectionChoiceProperties: &drivelabels.GoogleAppsDriveLabelsV2DeltaUpdateLabelRequestUpdateSelectionChoicePropertiesRequest{
			FieldId:    field.ID,
			Id:         choiceID,
			Properties: properties,
			UpdateMask: strings.Join(mask, ","),
		},
	})
}

func (c *LabelClient) field(ctx context.Context, labelID, fieldID string) (labels.FieldDefinition, error) {
	schema, err := c.GetLabel(ctx, labelID)
	if err != nil {
		return labels.FieldDefinition{}, err
	}

	field, ok := schema.Field(fieldID)
	if !ok {
		return labels.FieldDefinition{}, fmt.Errorf("%w: field %s on label %s", batch.ErrNotFound, fieldID, schema.ID)
	}
	return field, nil
}

// SetPermission grants role on labelID to email. An existing permission for the same
// principal is replaced.
func (c *LabelClient) SetPermission(ctx context.Context, labelID, email string, role labels.Role) (labels.Permission, error) {
	role, err := labels.ParseRole(string(role))
	if err != nil {
		return labels.Permission{}, err
	}
	if !strings.Contains(email, "@") {
		return labels.Permission{}, fmt.Errorf("%w: %q is not an email address", labels.ErrInvalidValue, email)
	}
	id, err := labels.ParseLabelID(labelID)
	if err != nil {
		return labels.Permission{}, fmt.Errorf("%w: %w", batch.ErrNotFound, err)
	}

	permission, err := c.api.Labels.Permissions.Create(id.ResourceName(), &drivelabels.GoogleAppsDriveLabelsV2LabelPermission{
		Email: email,
		Role:  string(role),
	}).UseAdminAccess(c.adminAccess).Context(ctx).Do()
	if err != nil {
		return labels.Permission{}, classify("set permission on "+id.Base, err)
	}

	logger.FromContext(ctx).WithName(loggerName).Info("label permission set", "labelId", id.Base, "email", email, "role", role)
	return toPermission(permission), nil
}

// ListPermissions returns every permission set on labelID.
func (c *LabelClient) ListPermissions(ctx context.Context, labelID string) ([]labels.Permission, error) {
	id, err := labels.ParseLabelID(labelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", batch.ErrNotFound, err)
	}

	permissions := make([]labels.Permission, 0)
	call := c.api.Labels.Permissions.List(id.ResourceName()).
		UseAdminAccess(c.adminAccess).
		PageSize(listPageSize)

	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, classify("list permissions of "+id.Base, err)
		}
		for _, permission := range response.LabelPermissions {
			if permission != nil {
				permissions = append(permissions, toPermission(permission))
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			return permissions, nil
		}
	}
}
