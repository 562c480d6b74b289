// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package snapshot

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Naming selects how snapshot files are named.
type Naming string

const (
	// NamingID writes <sheet_id>.json.
	NamingID Naming = "id"
	// NamingSlug writes <slug(title)>.json, falling back to the id for empty slugs.
	NamingSlug Naming = "slug"
)

// ParseNaming maps a config value to a Naming, defaulting to NamingID.
func ParseNaming(s string) Naming {
	if Naming(strings.ToLower(s)) == NamingSlug {
		return NamingSlug
	}
	return NamingID
}

// FileName returns the snapshot file name for a source.
func (n Naming) FileName(id int64, title string) string {
	if n == NamingSlug {
		if s := Slug(title); s != "" {
			return s + ".json"
		}
	}
	return strconv.FormatInt(id, 10) + ".json"
}

// Slug folds title to lower-case ASCII-ish: diacritics removed, runs of
// anything other than letters and digits collapsed to a single '-'.
//
//	Slug("Équipe A / Résultats") == "equipe-a-resultats"
func Slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
