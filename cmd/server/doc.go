// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

/*
Package main is the sheetmirror daemon.

Sheetmirror mirrors every sheet of one spreadsheet into JSON snapshot files.
On a fixed interval it exchanges a refresh token for an access token, lists
the sheets, fetches each one, and rewrites the snapshot of any sheet whose
content fingerprint changed since the last run. Fingerprints are kept in a
state document so unchanged sheets are skipped.

# Process layout

	sheetmirror (suture root)
	├── sync-layer
	│   └── sync-manager   tick scheduler
	└── api-layer
	    └── http-server    snapshot server (server.enabled)

Only one process may own a data directory; a second instance exits at
startup because the lock file is held.

# Configuration

Priority: environment variables > config file > defaults.

	REFRESH_TOKEN=...            # required
	CLIENT_ID=...                # required
	CLIENT_SECRET=...            # required
	SPREADSHEET_ID=...           # required
	SYNC_INTERVAL=30s
	DATA_DIR=public
	STATE_BACKEND=file           # file | badger | memory
	SNAPSHOT_NAMING=id           # id | slug
	SERVER_ENABLED=false
	HTTP_PORT=8000
	LOG_LEVEL=info
	LOG_FORMAT=json

See internal/config for the full list.
*/
package main
