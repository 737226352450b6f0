// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// titlePrefix matches a leading release-group or label prefix embedded
// in catalog titles ("Label - Title"). Greedy so the transform is
// idempotent: the remainder never contains another " - " separator.
var titlePrefix = regexp.MustCompile(`^.* - `)

// diacriticsRemover strips combining marks after NFD decomposition.
var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// FormatTitle normalizes a display title: strips the leading
// "<anything> - " prefix, trims whitespace and removes diacritics.
// Applying the transform twice yields the same result as applying it
// once.
func FormatTitle(title string) string {
	title = titlePrefix.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	return stripDiacritics(title)
}

// stripDiacritics removes Unicode combining marks (NFD decomposition
// followed by mark removal).
func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticsRemover, s)
	if err != nil {
		// Transform failures leave the original title in place; a
		// non-normalized title degrades display, not correctness.
		return s
	}
	return out
}

// normalizeSongTitle is the dedup key for song lists: lowercased,
// trimmed.
func normalizeSongTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
