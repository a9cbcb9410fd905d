package normalize

import "testing"

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// ISO 639-1 codes (passthrough)
		{"en", "en"},
		{"de", "de"},
		// ISO 639-2 codes
		{"deu", "de"},
		{"ger", "de"}, // bibliographic variant
		// Locale codes
		{"de-de", "de"},
		{"en_GB", "en"},
		{"de-AT", "de"},
		// Language names
		{"Deutsch", "de"},
		{"Englisch", "en"},
		{"ENGLISH", "en"},
		// Edge cases
		{"", ""},
		{"  en  ", "en"},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := LanguageCode(tt.input)
			if result != tt.expected {
				t.Errorf("LanguageCode(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"de-de", "Deutsch"},
		{"en-us", "English"},
		{"Deutsch", "Deutsch"},
		{"", ""},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Language(tt.input)
			if result != tt.expected {
				t.Errorf("Language(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestText(t *testing.T) {
	if got := Text("Märchen\x00"); got != "Märchen" {
		t.Errorf("Text() = %q", got)
	}
}
