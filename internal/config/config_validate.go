// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/sheetmirror/internal/validation"
)

// minSyncInterval guards against hammering the data endpoint.
const minSyncInterval = time.Second

// Validate checks struct tags first, then cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateOAuth(); err != nil {
		return err
	}

	if err := c.validateSheets(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	return c.validateServer()
}

func (c *Config) validateOAuth() error {
	if err := validateEndpointURL(c.OAuth.TokenURL, "TOKEN_URL"); err != nil {
		return fmt.Errorf("TOKEN_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateSheets() error {
	if err := validateHTTPURL(c.Sheets.BaseURL, "SHEETS_BASE_URL"); err != nil {
		return fmt.Errorf("SHEETS_BASE_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < minSyncInterval {
		return fmt.Errorf("SYNC_INTERVAL must be at least %s, got %s", minSyncInterval, c.Sync.Interval)
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_REQS is set")
	}
	return nil
}
