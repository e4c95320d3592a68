// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package drive talks to the Google Drive Labels API and to the Drive files API.
// LabelClient manages label definitions and implements batch.LabelCatalog, FileClient
// reads and changes the labels applied on files and implements batch.FileLabelService.
// Every remote failure is returned as a *DriveError wrapping one of the batch sentinel
// errors, so that callers can tell retryable failures from permanent ones.
package drive
