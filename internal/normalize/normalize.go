// Package normalize cleans up free-form metadata values.
package normalize

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/unicode/norm"
)

// languageNames maps language names, as they appear in the metadata
// database and on product pages, to tags.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var languageNames = map[string]language.Tag{
	"deutsch": language.German, "german": language.German,
	"englisch": language.English, "english": language.English,
	"französisch": language.French, "french": language.French,
	"spanisch": language.Spanish, "spanish": language.Spanish,
	"italienisch": language.Italian, "italian": language.Italian,
	"niederländisch": language.Dutch, "dutch": language.Dutch,
}

// LanguageCode converts various language representations to ISO 639-1 codes.
// It handles:
//   - ISO 639-1 codes: "de" -> "de"
//   - ISO 639-2 codes: "deu", "ger" -> "de"
//   - Locale codes: "de-de", "en_GB" -> "de", "en"
//   - Language names: "Deutsch", "ENGLISH" -> "de", "en"
//
// Returns empty string for unrecognized values.
func LanguageCode(raw string) string {
	tag, ok := parse(raw)
	if !ok {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// Language converts a language representation to its name in that
// language: "de-de" -> "Deutsch", "eng" -> "English".
// Returns empty string for unrecognized values.
func Language(raw string) string {
	tag, ok := parse(raw)
	if !ok {
		return ""
	}
	base, _ := tag.Base()
	name := display.Self.Name(language.Make(base.String()))
	if name == "" {
		return ""
	}
	// display.Self yields lowercase names for some languages ("français").
	r := []rune(name)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func parse(raw string) (language.Tag, bool) {
	s := strings.ToLower(strings.TrimSpace(Text(raw)))
	if s == "" {
		return language.Und, false
	}

	if tag, ok := languageNames[s]; ok {
		return tag, true
	}

	s = strings.ReplaceAll(s, "_", "-")
	tag, err := language.Parse(s)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	if _, conf := tag.Base(); conf == language.No {
		return language.Und, false
	}
	return tag, true
}

// Text removes null bytes and NFC-normalizes s. Some JSON sources carry
// decomposed umlauts, which would otherwise defeat keyword matching.
func Text(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
	return norm.NFC.String(s)
}
