// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package audit keeps the trail of the changes made through the command line.
// Records are stored in a local sqlite database and can be mirrored on the logger.
package audit
