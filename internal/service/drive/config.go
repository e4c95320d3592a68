// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
)

var (
	errInvalidEndpoint    = errors.New("invalid endpoint")
	errMissingCredentials = errors.New("credentials file not found")
)

// Config holds the settings used to reach the Google APIs.
type Config struct {
	// CredentialsFile is a service account or authorized user JSON file. When empty the
	// application default credentials are used.
	CredentialsFile string
	// Subject is the user impersonated by a service account with domain wide delegation.
	Subject string
	// AccessToken, when set, is sent as is instead of obtaining tokens from credentials.
	AccessToken string
	// UseAdminAccess performs label management calls with administrator privileges.
	UseAdminAccess bool
	// DriveEndpoint and LabelsEndpoint override the base URL of the APIs.
	DriveEndpoint  string
	LabelsEndpoint string
	// Timeout bounds every HTTP request.
	Timeout time.Duration
}

func (c *Config) validate() error {
	for name, endpoint := range map[string]string{"drive": c.DriveEndpoint, "labels": c.LabelsEndpoint} {
		if endpoint == "" {
			continue
		}
		if parsed, err := url.Parse(endpoint); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: %s endpoint %q", errInvalidEndpoint, name, endpoint)
		}
	}

	if c.AccessToken == "" && c.CredentialsFile != "" {
		if _, err := os.Stat(c.CredentialsFile); err != nil {
			return fmt.Errorf("%w: %s", errMissingCredentials, c.CredentialsFile)
		}
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}
