// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"errors"
	"io"
)

var (
	// ErrAuth means the authorization server rejected the credentials or
	// answered without an access token.
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("network error")

	// ErrProtocol means a response could not be interpreted.
	ErrProtocol = errors.New("protocol error")

	// ErrIO covers snapshot and state persistence failures.
	ErrIO = errors.New("storage error")
)

// maxErrorBodySize limits how much of an error response is read for diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads at most 64KB of r for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
