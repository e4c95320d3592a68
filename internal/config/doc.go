// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package config loads the command line configuration from its YAML file and the
// environment.
package config
