// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package batch applies many label operations on many files with as few remote calls
// as possible. Operations are grouped by file and label, each group is submitted as one
// modify call plus, when needed, one remove call, and groups that fail with transient
// errors are retried over a bounded number of passes.
package batch
