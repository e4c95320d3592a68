// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

// Modification is an Operation placed in a group, with its position in the submitted list.
type Modification struct {
	Index     int
	Operation Operation
}

// Unset reports whether m clears its field instead of setting a value.
func (m Modification) Unset() bool {
	return m.Operation.Kind == KindUnset
}

// OperationGroup collects the operations on one label of one file.
// Modifications are sent together in one modify call, Removals in a separate remove call.
type OperationGroup struct {
	FileID        string
	LabelID       string
	Modifications []Modification
	Removals      []Modification
}

// Size returns the number of operations in g.
func (g *OperationGroup) Size() int {
	return len(g.Modifications) + len(g.Removals)
}

type groupKey struct {
	fileID  string
	labelID string
}

// Group clusters ops by file and label. Groups are ordered by the first appearance of
// their file and, within a file, by the first appearance of their label. Operations
// without a file or a label are not grouped; their positions are returned in dropped.
// Label ids are compared without their "labels/" prefix and revision.
func Group(ops []Operation) (groups []*OperationGroup, dropped []int) {
	byKey := make(map[groupKey]*OperationGroup)
	fileOrder := make([]string, 0)
	labelOrder := make(map[string][]*OperationGroup)

	for index, op := range ops {
		if op.FileID == "" || op.LabelID == "" {
			dropped = append(dropped, index)
			continue
		}

		key := groupKey{fileID: op.FileID, labelID: groupLabelID(op.LabelID)}
		group, ok := byKey[key]
		if !ok {
			group = &OperationGroup{FileID: key.fileID, LabelID: key.labelID}
			byKey[key] = group
			if _, seen := labelOrder[key.fileID]; !seen {
				fileOrder = append(fileOrder, key.fileID)
			}
			labelOrder[key.fileID] = append(labelOrder[key.fileID], group)
		}

		modification := Modification{Index: index, Operation: op}
		if op.Kind == KindRemove {
			group.Removals = append(group.Removals, modification)
		} else {
			group.Modifications = append(group.Modifications, modification)
		}
	}

	groups = make([]*OperationGroup, 0, len(byKey))
	for _, fileID := range fileOrder {
		groups = append(groups, labelOrder[fileID]...)
	}

	return groups, dropped
}

func groupLabelID(labelID string) string {
	id, err := labels.ParseLabelID(labelID)
	if err != nil {
		return labelID
	}
	return id.Base
}
