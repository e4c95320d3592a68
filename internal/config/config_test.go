// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawncrivello/label-me-labeled/internal/info"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		path          string
		expected      func() *Config
		expectedError error
		errorMessage  string
	}{
		"full file": {
			path: filepath.Join("testdata", "full.yaml"),
			expected: func() *Config {
				return &Config{
					Auth: Auth{
						CredentialsFile: "/etc/drive-labels/service-account.json",
						Subject:         "admin@example.com",
						UseAdminAccess:  true,
					},
					Logging: Logging{Level: "DEBUG", Format: "text", AuditLog: "/var/lib/drive-labels/audit.db"},
					API:     API{MaxRetries: 2, Timeout: 10, BatchSize: 20, RequestsPerSecond: 5},
					UI:      UI{},
				}
			},
		},
		"partial file keeps defaults": {
			path: filepath.Join("testdata", "partial.yaml"),
			expected: func() *Config {
				config := Default()
				config.API.MaxRetries = 8
				return config
			},
		},
		"empty file": {
			path:     filepath.Join("testdata", "empty.yaml"),
			expected: Default,
		},
		"unknown field": {
			path:          filepath.Join("testdata", "unknown.yaml"),
			expectedError: ErrParsing,
		},
		"invalid values": {
			path:          filepath.Join("testdata", "invalid.yaml"),
			expectedError: ErrInvalid,
			errorMessage: "invalid configuration: api.batch_size is out of valid range (1-1000); " +
				"api.timeout must be a positive number of seconds; unknown log level 'VERBOSE'",
		},
		"missing explicit file": {
			path:          filepath.Join(t.TempDir(), "missing.yaml"),
			expectedError: syscall.ENOENT,
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			config, err := Load(test.path)
			if test.expectedError != nil {
				require.ErrorIs(t, err, test.expectedError)
				assert.Nil(t, config)
				if test.errorMessage != "" {
					assert.EqualError(t, err, test.errorMessage)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected(), config)
		})
	}
}

func TestLoadDefaultPath(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", configHome)

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, config.API.BatchSize)

	dir := filepath.Join(configHome, info.AppName)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("api:\n  batch_size: 7\n"), 0o600))

	config, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, config.API.BatchSize)

	auditPath, err := config.AuditPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AuditFileName), auditPath)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/credentials.json")
	t.Setenv("DRIVE_LABELS_ACCESS_TOKEN", "token")
	t.Setenv("DRIVE_LABELS_LOG_LEVEL", "trace")
	t.Setenv("DRIVE_LABELS_MAX_RETRIES", "1")
	t.Setenv("DRIVE_LABELS_SHOW_PROGRESS", "false")
	t.Setenv("DRIVE_LABELS_DRIVE_ENDPOINT", "http://127.0.0.1:8080/")

	config, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/credentials.json", config.Auth.CredentialsFile)
	assert.Equal(t, "token", config.Auth.AccessToken)
	assert.Equal(t, logger.TRACE, config.LogLevel())
	assert.Equal(t, 1, config.API.MaxRetries)
	assert.Equal(t, 20, config.API.BatchSize)
	assert.False(t, config.UI.ShowProgress)

	driveConfig := config.Drive()
	assert.Equal(t, "http://127.0.0.1:8080/", driveConfig.DriveEndpoint)
	assert.Equal(t, 10*time.Second, driveConfig.Timeout)
	assert.True(t, driveConfig.UseAdminAccess)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("DRIVE_LABELS_BATCH_SIZE", "many")

	config, err := Load(filepath.Join("testdata", "empty.yaml"))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Nil(t, config)
}

func TestBatchConfig(t *testing.T) {
	t.Parallel()

	config := Default()
	config.API.RequestsPerSecond = 2.5

	batchConfig := config.Batch()
	assert.Equal(t, defaultBatchSize, batchConfig.BatchSize)
	assert.Equal(t, defaultMaxRetries, batchConfig.RetryCount)
	assert.InDelta(t, 2.5, batchConfig.RequestsPerSecond, 0)
	assert.NoError(t, batchConfig.Validate())
	assert.Equal(t, logger.JSONFormat, config.LogFormat())
}
