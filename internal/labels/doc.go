// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package labels models Drive labels and their typed fields.
// It converts user supplied values to and from the representation each field type
// expects on the wire, renders search predicates over label fields and parses label
// identifiers. Nothing in this package talks to the remote service.
package labels
