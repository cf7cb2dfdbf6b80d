package normalize

import "testing"

func TestTagName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"lowercase", "CHILL", "chill"},
		{"spaces to dashes", "late night", "late-night"},
		{"underscores to dashes", "late_night", "late-night"},
		{"already normalized", "late-night", "late-night"},

		// Whitespace handling
		{"trim whitespace", "  chill  ", "chill"},
		{"multiple spaces", "late   night", "late-night"},
		{"tabs and spaces", "late\t night", "late-night"},

		// Case folding
		{"mixed case", "LoFi Beats", "lofi-beats"},
		{"sharp s folds", "STRASSE", "strasse"},

		// Special characters
		{"punctuation removal", "drum&bass!", "drumbass"},
		{"slash to dash", "synth/wave", "synth-wave"},
		{"apostrophe removal", "90's", "90s"},
		{"colon removal", "mood:calm", "moodcalm"},

		// Dash handling
		{"multiple dashes", "deep--house", "deep-house"},
		{"leading dashes", "--chill", "chill"},
		{"trailing dashes", "chill--", "chill"},

		// Edge cases
		{"empty string", "", ""},
		{"only spaces", "   ", ""},
		{"only special chars", "!@#$%", ""},
		{"numbers allowed", "top40", "top40"},
		{"mixed case with numbers", "Top 40 Hits", "top-40-hits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TagName(tt.input)
			if result != tt.expected {
				t.Errorf("TagName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
