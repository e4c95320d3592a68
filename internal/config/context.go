// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import "context"

type contextKeyType struct{}

var contextKey = contextKeyType{}

// WithContext returns a copy of ctx carrying config.
func WithContext(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, contextKey, config)
}

// FromContext returns the configuration carried by ctx, or the default one.
func FromContext(ctx context.Context) *Config {
	if config, ok := ctx.Value(contextKey).(*Config); ok && config != nil {
		return config
	}
	return Default()
}
