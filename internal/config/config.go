// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/info"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
	"github.com/shawncrivello/label-me-labeled/internal/service/drive"
)

const (
	// FileName is the name of the configuration file inside the configuration directory.
	FileName = "config.yaml"
	// AuditFileName is the name of the default audit database inside the configuration directory.
	AuditFileName = "audit.db"

	defaultMaxRetries = 5
	defaultTimeout    = 30
	defaultBatchSize  = 50
	maxBatchSize      = 1000
)

var (
	// ErrParsing reports failures that occur while decoding the configuration file.
	ErrParsing = errors.New("error parsing configuration")
	// ErrInvalid reports configuration values out of their valid range.
	ErrInvalid = errors.New("invalid configuration")

	logLevels  = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}
	logFormats = []logger.Format{logger.JSONFormat, logger.TextFormat}
)

// Config is the configuration of the command line, read from the configuration file and
// overridden by environment variables.
type Config struct {
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
	API     API     `yaml:"api"`
	UI      UI      `yaml:"ui"`
}

// Auth selects the credentials used for the remote calls.
type Auth struct {
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	Subject         string `yaml:"subject" env:"DRIVE_LABELS_SUBJECT"`
	AccessToken     string `yaml:"-" env:"DRIVE_LABELS_ACCESS_TOKEN"`
	UseAdminAccess  bool   `yaml:"use_admin_access" env:"DRIVE_LABELS_USE_ADMIN_ACCESS"`
}

// Logging configures the application logger and the audit trail.
type Logging struct {
	Level    string `yaml:"level" env:"DRIVE_LABELS_LOG_LEVEL"`
	Format   string `yaml:"format" env:"DRIVE_LABELS_LOG_FORMAT"`
	AuditLog string `yaml:"audit_log" env:"DRIVE_LABELS_AUDIT_LOG"`
}

// API tunes the remote calls.
type API struct {
	MaxRetries        int     `yaml:"max_retries" env:"DRIVE_LABELS_MAX_RETRIES"`
	Timeout           int     `yaml:"timeout" env:"DRIVE_LABELS_TIMEOUT"`
	BatchSize         int     `yaml:"batch_size" env:"DRIVE_LABELS_BATCH_SIZE"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"DRIVE_LABELS_REQUESTS_PER_SECOND"`
	DriveEndpoint     string  `yaml:"drive_endpoint" env:"DRIVE_LABELS_DRIVE_ENDPOINT"`
	LabelsEndpoint    string  `yaml:"labels_endpoint" env:"DRIVE_LABELS_LABELS_ENDPOINT"`
}

// UI tunes the interactive output.
type UI struct {
	ShowProgress       bool `yaml:"show_progress" env:"DRIVE_LABELS_SHOW_PROGRESS"`
	ConfirmDestructive bool `yaml:"confirm_destructive" env:"DRIVE_LABELS_CONFIRM_DESTRUCTIVE"`
	Color              bool `yaml:"color" env:"DRIVE_LABELS_COLOR"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "INFO", Format: string(logger.JSONFormat)},
		API:     API{MaxRetries: defaultMaxRetries, Timeout: defaultTimeout, BatchSize: defaultBatchSize},
		UI:      UI{ShowProgress: true, ConfirmDestructive: true, Color: true},
	}
}

// Dir returns the directory holding the configuration file and the audit database.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, info.AppName), nil
}

// Load reads the configuration at path, then applies the environment overrides. An empty
// path selects the file inside Dir, which is allowed to be missing.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, FileName)
	}

	err := config.readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, err
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w %q: %w", ErrParsing, path, err)
	}
	return nil
}

func (c *Config) validate() error {
	errorsList := []string{}

	c.Logging.Level = strings.ToUpper(c.Logging.Level)
	if !slices.Contains(logLevels, c.Logging.Level) {
		errorsList = append(errorsList, fmt.Sprintf("unknown log level '%s'", c.Logging.Level))
	}
	if !slices.Contains(logFormats, logger.Format(strings.ToLower(c.Logging.Format))) {
		errorsList = append(errorsList, fmt.Sprintf("unknown log format '%s'", c.Logging.Format))
	}
	if c.API.MaxRetries < 0 {
		errorsList = append(errorsList, "api.max_retries cannot be negative")
	}
	if c.API.Timeout <= 0 {
		errorsList = append(errorsList, "api.timeout must be a positive number of seconds")
	}
	if c.API.BatchSize < 1 || c.API.BatchSize > maxBatchSize {
		errorsList = append(errorsList, fmt.Sprintf("api.batch_size is out of valid range (1-%d)", maxBatchSize))
	}
	if c.API.RequestsPerSecond < 0 {
		errorsList = append(errorsList, "api.requests_per_second cannot be negative")
	}
	for name, endpoint := range map[string]string{"api.drive_endpoint": c.API.DriveEndpoint, "api.labels_endpoint": c.API.LabelsEndpoint} {
		if endpoint == "" {
			continue
		}
		if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errorsList = append(errorsList, fmt.Sprintf("%s is not a valid url", name))
		}
	}

	if len(errorsList) > 0 {
		slices.Sort(errorsList)
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errorsList, "; "))
	}
	return nil
}

// AuditPath returns the audit database location.
func (c *Config) AuditPath() (string, error) {
	if c.Logging.AuditLog != "" {
		return c.Logging.AuditLog, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AuditFileName), nil
}

// LogLevel returns the configured logger level.
func (c *Config) LogLevel() logger.Level {
	return logger.LevelFromString(c.Logging.Level)
}

// LogFormat returns the configured logger format.
func (c *Config) LogFormat() logger.Format {
	return logger.Format(strings.ToLower(c.Logging.Format))
}

// Drive returns the configuration of the remote clients.
func (c *Config) Drive() drive.Config {
	return drive.Config{
		CredentialsFile: c.Auth.CredentialsFile,
		Subject:         c.Auth.Subject,
		AccessToken:     c.Auth.AccessToken,
		UseAdminAccess:  c.Auth.UseAdminAccess,
		DriveEndpoint:   c.API.DriveEndpoint,
		LabelsEndpoint:  c.API.LabelsEndpoint,
		Timeout:         time.Duration(c.API.Timeout) * time.Second,
	}
}

// Batch returns the executor configuration, starting from the executor defaults.
func (c *Config) Batch() batch.Config {
	config := batch.DefaultConfig()
	config.BatchSize = c.API.BatchSize
	config.RetryCount = c.API.MaxRetries
	config.RequestsPerSecond = c.API.RequestsPerSecond
	return config
}
