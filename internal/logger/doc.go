// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps the underlying logging stack behind a consistent interface.
// Loggers travel through context helpers, and NewTransport logs the HTTP traffic
// sent to the remote label service.
package logger
