// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/drivelabels/v2"
	"google.golang.org/api/option"

	"github.com/shawncrivello/label-me-labeled/internal/info"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	loggerName = "drive-labels:drive"

	labelsScope      = "https://www.googleapis.com/auth/drive.labels"
	adminLabelsScope = "https://www.googleapis.com/auth/drive.admin.labels"
)

// Service builds the API clients sharing one authenticated HTTP client.
type Service struct {
	config Config

	client atomic.Pointer[http.Client]
}

// NewService validates config and returns a Service. No request is sent until a
// client is used.
func NewService(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Service{config: config}, nil
}

// LabelClient returns a client of the Drive Labels API.
func (s *Service) LabelClient(ctx context.Context) (*LabelClient, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.config.LabelsEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.config.LabelsEndpoint))
	}

	api, err := drivelabels.NewService(ctx, opts...)
	if err != nil {
		return nil, classify("init labels", err)
	}
	api.UserAgent = info.UserAgent()

	return &LabelClient{api: api, adminAccess: s.config.UseAdminAccess}, nil
}

// FileClient returns a client of the Drive files API.
func (s *Service) FileClient(ctx context.Context) (*FileClient, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.config.DriveEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.config.DriveEndpoint))
	}

	api, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, classify("init drive", err)
	}
	api.UserAgent = info.UserAgent()

	return &FileClient{api: api}, nil
}

func (s *Service) getClient(ctx context.Context) (*http.Client, error) {
	client := s.client.Load()
	if client != nil {
		return client, nil
	}

	//nolint:contextcheck // token requests outlive the context of the first call
	source, err := s.tokenSource(context.Background())
	if err != nil {
		return nil, err
	}

	client = &http.Client{
		Timeout: s.config.Timeout,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   logger.NewTransport(http.DefaultTransport, logger.FromContext(ctx).WithName(loggerName)),
		},
	}
	s.client.Store(client)
	return client, nil
}

func (s *Service) scopes() []string {
	scopes := []string{drivev3.DriveScope, labelsScope}
	if s.config.UseAdminAccess {
		scopes = append(scopes, adminLabelsScope)
	}
	return scopes
}

// tokenSource picks, in order, the static token, the credentials file and the
// application default credentials.
func (s *Service) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if s.config.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.config.AccessToken}), nil
	}

	if s.config.CredentialsFile == "" {
		credentials, err := google.FindDefaultCredentials(ctx, s.scopes()...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errMissingCredentials, err)
		}
		return credentials.TokenSource, nil
	}

	data, err := os.ReadFile(s.config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMissingCredentials, err)
	}

	if s.config.Subject != "" {
		jwtConfig, err := google.JWTConfigFromJSON(data, s.scopes()...)
		if err != nil {
			return nil, fmt.Errorf("invalid service account credentials: %w", err)
		}
		jwtConfig.Subject = s.config.Subject
		return jwtConfig.TokenSource(ctx), nil
	}

	//nolint:staticcheck // the credentials file is chosen by the user running the tool
	credentials, err := google.CredentialsFromJSON(ctx, data, s.scopes()...)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return credentials.TokenSource, nil
}
