// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package snapshot

import "testing"

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"Roster", "roster"},
		{"Équipe A / Résultats", "equipe-a-resultats"},
		{"  2024 Q1 -- Sales!! ", "2024-q1-sales"},
		{"Ñandú", "nandu"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNamingFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		naming   Naming
		id       int64
		title    string
		expected string
	}{
		{"id naming", NamingID, 111, "Roster", "111.json"},
		{"slug naming", NamingSlug, 111, "Team Roster", "team-roster.json"},
		{"slug falls back to id", NamingSlug, 222, "!!!", "222.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.naming.FileName(tt.id, tt.title); got != tt.expected {
				t.Errorf("FileName(%d, %q) = %q, expected %q", tt.id, tt.title, got, tt.expected)
			}
		})
	}
}

func TestParseNaming(t *testing.T) {
	t.Parallel()

	if ParseNaming("slug") != NamingSlug || ParseNaming("SLUG") != NamingSlug {
		t.Error("expected slug naming")
	}
	if ParseNaming("id") != NamingID || ParseNaming("") != NamingID {
		t.Error("expected id naming by default")
	}
}
