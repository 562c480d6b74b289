// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/metrics"
)

// TokenSource yields a fresh access token.
type TokenSource interface {
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

// TokenProvider performs one refresh-token exchange per call. Nothing is
// cached between calls, so every tick starts with a new access token.
type TokenProvider struct {
	oauth        oauth2.Config
	refreshToken string
	client       *http.Client
}

// NewTokenProvider creates a provider posting client_id, client_secret,
// refresh_token and grant_type=refresh_token as form parameters.
func NewTokenProvider(cfg *config.OAuthConfig, client *http.Client) *TokenProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		refreshToken: cfg.RefreshToken,
		client:       client,
	}
}

// Refresh exchanges the refresh token for an access token.
func (p *TokenProvider) Refresh(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	src := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: p.refreshToken})

	tok, err := src.Token()
	metrics.RecordTokenRefresh(err)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: response without access_token", ErrAuth)
	}

	logging.Ctx(ctx).Debug().Time("expiry", tok.Expiry).Msg("Access token refreshed")
	return tok, nil
}

// credentialErrorCodes are the RFC 6749 token error codes that mean the
// credentials themselves were refused.
var credentialErrorCodes = map[string]bool{
	"invalid_request":        true,
	"invalid_client":         true,
	"invalid_grant":          true,
	"unauthorized_client":    true,
	"unsupported_grant_type": true,
	"invalid_scope":          true,
}

// classifyTokenError maps oauth2 failures onto the package sentinels.
//
//	2xx without access_token                -> ErrAuth
//	400/401, or a credential error code     -> ErrAuth
//	other status codes, transport errors    -> ErrNetwork
//	anything else (unparseable response)    -> ErrAuth
func classifyTokenError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		switch {
		case status >= 200 && status < 300:
			return fmt.Errorf("%w: token response without access_token (%s)", ErrAuth, rErr.ErrorCode)
		case status == http.StatusBadRequest, status == http.StatusUnauthorized, credentialErrorCodes[rErr.ErrorCode]:
			return fmt.Errorf("%w: token endpoint rejected credentials (status %d, %s)", ErrAuth, status, rErr.ErrorCode)
		}
		return fmt.Errorf("%w: token endpoint returned status %d", ErrNetwork, status)
	}

	var uErr *url.Error
	if errors.As(err, &uErr) {
		return fmt.Errorf("%w: token request: %w", ErrNetwork, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: token request: %w", ErrNetwork, err)
	}

	return fmt.Errorf("%w: %w", ErrAuth, err)
}
