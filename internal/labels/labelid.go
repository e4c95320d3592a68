// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package labels

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	resourcePrefix    = "labels/"
	revisionSeparator = "@"
)

// LabelID identifies a label and, optionally, one of its revisions.
type LabelID struct {
	Base     string
	Revision string
}

// ParseLabelID parses ids in the forms "abc", "abc@rev", "labels/abc" and "labels/abc@rev".
func ParseLabelID(s string) (LabelID, error) {
	trimmed := strings.TrimPrefix(s, resourcePrefix)

	base, revision, hasRevision := strings.Cut(trimmed, revisionSeparator)
	if base == "" {
		return LabelID{}, fmt.Errorf("%w: %q has no base id", ErrInvalidLabelID, s)
	}
	if hasRevision && revision == "" {
		return LabelID{}, fmt.Errorf("%w: %q has an empty revision", ErrInvalidLabelID, s)
	}

	for _, part := range []string{base, revision} {
		if strings.ContainsAny(part, "/"+revisionSeparator) || strings.IndexFunc(part, unicode.IsSpace) >= 0 {
			return LabelID{}, fmt.Errorf("%w: %q contains invalid characters", ErrInvalidLabelID, s)
		}
	}

	return LabelID{Base: base, Revision: revision}, nil
}

// String formats id as "base" or "base@revision". It is the inverse of ParseLabelID.
func (id LabelID) String() string {
	if id.Revision == "" {
		return id.Base
	}
	return id.Base + revisionSeparator + id.Revision
}

// ResourceName returns the API resource name of the label, without revision.
func (id LabelID) ResourceName() string {
	return resourcePrefix + id.Base
}

// RevisionName returns the API resource name of the label revision, or the label
// resource name when id has no revision.
func (id LabelID) RevisionName() string {
	return resourcePrefix + id.String()
}

// WithoutRevision returns id with the revision removed.
func (id LabelID) WithoutRevision() LabelID {
	return LabelID{Base: id.Base}
}
