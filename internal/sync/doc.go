// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

/*
Package sync mirrors the sheets of one spreadsheet into local JSON snapshots.

Key Components:

  - TokenProvider: exchanges the long-lived refresh token for an access token (golang.org/x/oauth2)
  - SheetsClient: lists sources and fetches raw sheet payloads (getByDataFilter)
  - CircuitBreakerClient: gobreaker protection around SheetsClient
  - Digest: SHA-256 fingerprint of a raw payload, uppercase hex
  - Normalize: tolerant decode of a payload into a models.Table
  - Manager: fixed-interval scheduler running one tick at a time

Tick Flow:

	Refresh -> List -> for each source, in listing order:
	    Fetch -> Digest -> state.Classify
	    Unchanged:      log SKIP
	    Unseen/Changed: Normalize -> snapshot.Writer.Write -> state.Store.Commit

A token or listing failure aborts the tick before any fetch. A failure inside
one source is logged with its sheet_id and title, and the next source is
processed. Nothing is retried within a tick; the next tick is the recovery
mechanism.

Errors:

Failures are classified with the sentinels ErrAuth, ErrNetwork, ErrProtocol
and ErrIO and wrapped with context:

	if errors.Is(err, sync.ErrAuth) {
	    // credentials rejected
	}
*/
package sync
