// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package csvio reads bulk label operations and label definitions from CSV files and
// writes the labels applied on files as CSV.
package csvio
