// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package state

import "fmt"

// Backend kinds accepted by OpenBackend.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// OpenBackend builds the backend named by kind. path is ignored for memory.
func OpenBackend(kind, path string) (Backend, error) {
	switch kind {
	case BackendFile, "":
		return NewFileBackend(path), nil
	case BackendBadger:
		return OpenBadgerBackend(path)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", kind)
	}
}
