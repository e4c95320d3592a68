// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"context"
	"fmt"
	"slices"
	"sort"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	fileFields         = "id,name,mimeType,owners,modifiedTime,description,webViewLink,trashed,shared"
	searchPageSize     = 100
	labelsPageSize     = 100
	notTrashedFilter   = "trashed = false"
	defaultSearchLimit = 100
)

var _ batch.FileLabelService = &FileClient{}

// FileClient reads and changes the labels applied on files.
type FileClient struct {
	api *drivev3.Service
}

// Owner is an owner of a file.
type Owner struct {
	Email string
	Name  string
}

// File is the metadata of a Drive file.
type File struct {
	ID           string
	Name         string
	MimeType     string
	Owners       []Owner
	ModifiedTime string
	Description  string
	WebLink      string
	Trashed      bool
	Shared       bool
}

// LabelStats summarizes the labels applied on a file.
type LabelStats struct {
	File        *File
	Labels      []labels.AppliedLabel
	TotalLabels int
	TotalFields int
	FieldTypes  map[labels.FieldType]int
}

// ModifyLabels applies labelID on fileID and sets or clears the given fields in one request.
func (c *FileClient) ModifyLabels(ctx context.Context, fileID, labelID string, modifications []labels.FieldModification) error {
	fields := make([]*drivev3.LabelFieldModification, 0, len(modifications))
	for _, modification := range modifications {
		fields = append(fields, toLabelFieldModification(modification))
	}

	return c.modify(ctx, "modify labels", fileID, &drivev3.LabelModification{
		LabelId:            baseLabelID(labelID),
		FieldModifications: fields,
	})
}

// RemoveLabel removes labelID and all its field values from fileID.
func (c *FileClient) RemoveLabel(ctx context.Context, fileID, labelID string) error {
	return c.modify(ctx, "remove label", fileID, &drivev3.LabelModification{
		LabelId:     baseLabelID(labelID),
		RemoveLabel: true,
	})
}

func (c *FileClient) modify(ctx context.Context, op, fileID string, modification *drivev3.LabelModification) error {
	_, err := c.api.Files.ModifyLabels(fileID, &drivev3.ModifyLabelsRequest{
		LabelModifications: []*drivev3.LabelModification{modification},
	}).Context(ctx).Do()
	if err != nil {
		return classify(op+" on "+fileID, err)
	}

	logger.FromContext(ctx).WithName(loggerName).Debug("labels modified",
		"fileId", fileID,
		"labelId", modification.LabelId,
		"fields", len(modification.FieldModifications),
		"remove", modification.RemoveLabel,
	)
	return nil
}

// GetFile returns the metadata of fileID.
func (c *FileClient) GetFile(ctx context.Context, fileID string) (*File, error) {
	file, err := c.api.Files.Get(fileID).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("get file "+fileID, err)
	}

	return toFile(file), nil
}

// ListFileLabels returns the labels applied on fileID with their field values.
func (c *FileClient) ListFileLabels(ctx context.Context, fileID string) ([]labels.AppliedLabel, error) {
	applied := make([]labels.AppliedLabel, 0)
	call := c.api.Files.ListLabels(fileID).MaxResults(labelsPageSize)

	for {
		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, classify("list labels of "+fileID, err)
		}

		for _, label := range response.Labels {
			if label != nil {
				applied = append(applied, toAppliedLabel(label))
			}
		}

		if response.NextPageToken == "" {
			return applied, nil
		}
		call = call.PageToken(response.NextPageToken)
	}
}

// SearchFiles returns up to limit files matching query, a Drive search expression such
// as the ones built by labels.SearchQuery. Trashed files are never returned.
func (c *FileClient) SearchFiles(ctx context.Context, query string, limit int) ([]*File, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := notTrashedFilter
	if query != "" {
		q = query + " and " + notTrashedFilter
	}
	logger.FromContext(ctx).WithName(loggerName).Debug("searching files", "query", q, "limit", limit)

	files := make([]*File, 0)
	pageToken := ""
	for len(files) < limit {
		call := c.api.Files.List().
			Q(q).
			PageSize(int64(min(limit-len(files), searchPageSize))).
			Fields(googleapi.Field("nextPageToken,files(" + fileFields + ")")).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, classify("search files", err)
		}

		for _, file := range response.Files {
			if len(files) == limit {
				break
			}
			files = append(files, toFile(file))
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return files, nil
}

// CopyLabels returns the operations that apply on targetID the labels and field values
// found on sourceID. Labels in exclude are skipped and, when include is not empty, only
// labels in include are copied. Labels without values cannot be expressed as field
// operations and are left out.
func (c *FileClient) CopyLabels(ctx context.Context, sourceID, targetID string, include, exclude []string) ([]batch.Operation, error) {
	applied, err := c.ListFileLabels(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	include = normalizeLabelIDs(include)
	exclude = normalizeLabelIDs(exclude)
	log := logger.FromContext(ctx).WithName(loggerName)

	ops := make([]batch.Operation, 0)
	for _, label := range applied {
		labelID := baseLabelID(label.LabelID)
		if slices.Contains(exclude, labelID) || (len(include) > 0 && !slices.Contains(include, labelID)) {
			continue
		}
		if len(label.Fields) == 0 {
			log.Warn("label has no values to copy", "labelId", labelID, "fileId", sourceID)
			continue
		}

		fieldIDs := make([]string, 0, len(label.Fields))
		for fieldID := range label.Fields {
			fieldIDs = append(fieldIDs, fieldID)
		}
		sort.Strings(fieldIDs)

		for _, fieldID := range fieldIDs {
			value := label.Fields[fieldID]
			ops = append(ops, batch.Operation{
				Kind:    batch.KindApply,
				FileID:  targetID,
				LabelID: labelID,
				FieldID: fieldID,
				Value:   labels.Decode(value.Type, value),
			})
		}
	}

	return ops, nil
}

// LabelStats returns the labels applied on fileID together with their counts.
func (c *FileClient) LabelStats(ctx context.Context, fileID string) (*LabelStats, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	applied, err := c.ListFileLabels(ctx, fileID)
	if err != nil {
		return nil, err
	}

	stats := &LabelStats{
		File:        file,
		Labels:      applied,
		TotalLabels: len(applied),
		FieldTypes:  make(map[labels.FieldType]int),
	}
	for _, label := range applied {
		stats.TotalFields += len(label.Fields)
		for _, value := range label.Fields {
			stats.FieldTypes[value.Type]++
		}
	}

	return stats, nil
}

func toFile(file *drivev3.File) *File {
	result := &File{
		ID:           file.Id,
		Name:         file.Name,
		MimeType:     file.MimeType,
		ModifiedTime: file.ModifiedTime,
		Description:  file.Description,
		WebLink:      file.WebViewLink,
		Trashed:      file.Trashed,
		Shared:       file.Shared,
		Owners:       make([]Owner, 0, len(file.Owners)),
	}
	for _, owner := range file.Owners {
		if owner != nil {
			result.Owners = append(result.Owners, Owner{Email: owner.EmailAddress, Name: owner.DisplayName})
		}
	}
	return result
}

func baseLabelID(labelID string) string {
	id, err := labels.ParseLabelID(labelID)
	if err != nil {
		return labelID
	}
	return id.Base
}

func normalizeLabelIDs(ids []string) []string {
	normalized := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			normalized = append(normalized, baseLabelID(id))
		}
	}
	return normalized
}

func (s *LabelStats) String() string {
	return fmt.Sprintf("%d labels, %d fields", s.TotalLabels, s.TotalFields)
}
