// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest returns the SHA-256 of raw as 64 uppercase hex characters.
// It covers the raw response body, so any upstream change (formatting
// included) produces a new fingerprint.
func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
