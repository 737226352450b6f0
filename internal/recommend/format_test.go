// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import "testing"

func TestFormatTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain title", "Abbey Road", "Abbey Road"},
		{"label prefix stripped", "Apple Records - Abbey Road", "Abbey Road"},
		{"multiple separators stripped greedily", "Label - Artist - Title", "Title"},
		{"whitespace trimmed", "  Abbey Road  ", "Abbey Road"},
		{"diacritics removed", "Amélie", "Amelie"},
		{"prefix and diacritics", "Café Records - Señorita", "Senorita"},
		{"empty", "", ""},
		{"hyphen without spaces kept", "Re-Animator", "Re-Animator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTitle(tt.input)
			if got != tt.want {
				t.Errorf("FormatTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"Apple Records - Abbey Road",
		"Label - Artist - Title",
		"Amélie",
		"  spaced  ",
		"plain",
	}

	for _, input := range inputs {
		once := FormatTitle(input)
		twice := FormatTitle(once)
		if once != twice {
			t.Errorf("FormatTitle not idempotent for %q: once=%q twice=%q", input, once, twice)
		}
	}
}

func TestNormalizeSongTitle(t *testing.T) {
	if got := normalizeSongTitle("  Hey Jude "); got != "hey jude" {
		t.Errorf("normalizeSongTitle = %q, want %q", got, "hey jude")
	}
}
