// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package progress reports the advancement of long running commands.
package progress
