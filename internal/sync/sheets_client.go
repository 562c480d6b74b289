// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/sheetmirror/internal/config"
	"github.com/tomtom215/sheetmirror/internal/logging"
	"github.com/tomtom215/sheetmirror/internal/metrics"
	"github.com/tomtom215/sheetmirror/internal/models"
)

// SheetsAPI lists the sources of the spreadsheet and fetches their raw payloads.
type SheetsAPI interface {
	List(ctx context.Context, token *oauth2.Token) ([]models.Source, error)
	Fetch(ctx context.Context, token *oauth2.Token, sheetID int64) ([]byte, error)
}

// SheetsClient talks to the getByDataFilter endpoint of one spreadsheet.
type SheetsClient struct {
	endpoint  string
	client    *http.Client
	limiter   *rate.Limiter
	skipFirst bool
}

// NewSheetsClient creates a client. A nil http.Client gets one with cfg.RequestTimeout.
func NewSheetsClient(cfg *config.SheetsConfig, client *http.Client) *SheetsClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &SheetsClient{
		endpoint: fmt.Sprintf("%s/v4/spreadsheets/%s:getByDataFilter",
			strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(cfg.SpreadsheetID)),
		client:    client,
		limiter:   limiter,
		skipFirst: cfg.SkipFirst,
	}
}

type listRequest struct {
	IncludeGridData bool `json:"includeGridData"`
}

type gridRange struct {
	SheetID int64 `json:"sheetId"`
}

type dataFilter struct {
	GridRange gridRange `json:"gridRange"`
}

type fetchRequest struct {
	IncludeGridData bool         `json:"includeGridData"`
	DataFilters     []dataFilter `json:"dataFilters"`
}

// sheetEntry is one element of the listing's sheets array.
// Pointers distinguish a missing field from a zero value.
type sheetEntry struct {
	Properties struct {
		SheetID *int64  `json:"sheetId"`
		Title   *string `json:"title"`
	} `json:"properties"`
}

// List returns the sources in listing order. The first sheet is excluded when
// skip_first is set. Entries whose id or title cannot be decoded are skipped.
func (c *SheetsClient) List(ctx context.Context, token *oauth2.Token) ([]models.Source, error) {
	body, err := c.post(ctx, "list", token, listRequest{IncludeGridData: false})
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	return parseSheetList(body, c.skipFirst)
}

// sheetsField returns the top-level "sheets" value of a response body.
// An undecodable body, or one where the key is absent or null, is ErrProtocol.
func sheetsField(body []byte) (json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProtocol, err)
	}

	raw, ok := top["sheets"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: response has no sheets", ErrProtocol)
	}
	return raw, nil
}

func parseSheetList(body []byte, skipFirst bool) ([]models.Source, error) {
	raw, err := sheetsField(body)
	if err != nil {
		return nil, fmt.Errorf("sheet listing: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		// present but not an array: nothing to mirror
		return []models.Source{}, nil
	}

	sources := make([]models.Source, 0, len(entries))
	for i, rawEntry := range entries {
		if i == 0 && skipFirst {
			continue
		}
		var entry sheetEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		if entry.Properties.SheetID == nil || entry.Properties.Title == nil {
			continue
		}
		sources = append(sources, models.Source{
			ID:    *entry.Properties.SheetID,
			Title: *entry.Properties.Title,
		})
	}
	return sources, nil
}

// Fetch returns the unparsed response body for one sheet including grid data.
// A 2xx body without a sheets value is rejected with ErrProtocol so it never
// reaches normalization.
func (c *SheetsClient) Fetch(ctx context.Context, token *oauth2.Token, sheetID int64) ([]byte, error) {
	body, err := c.post(ctx, "fetch", token, fetchRequest{
		IncludeGridData: true,
		DataFilters:     []dataFilter{{GridRange: gridRange{SheetID: sheetID}}},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %d: %w", sheetID, err)
	}
	if _, err := sheetsField(body); err != nil {
		return nil, fmt.Errorf("fetch sheet %d: %w", sheetID, err)
	}
	return body, nil
}

// post sends payload as JSON with bearer auth and returns the full 2xx body.
func (c *SheetsClient) post(ctx context.Context, operation string, token *oauth2.Token, payload interface{}) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrNetwork, err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrProtocol, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create request failed: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != nil {
		token.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(operation, 0, time.Since(start))
		return nil, fmt.Errorf("%w: request failed: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		logging.Ctx(ctx).Debug().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Bytes("body", body).
			Msg("Spreadsheet API error response")
		return nil, fmt.Errorf("%w: request failed with status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	return body, nil
}
