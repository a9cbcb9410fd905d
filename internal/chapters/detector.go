package chapters

import (
	"fmt"
	"regexp"
	"strings"
)

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^chapter\s+\d+$`),
	regexp.MustCompile(`(?i)^kapitel\s+\d+$`),
	regexp.MustCompile(`(?i)^track\s+\d+$`),
	regexp.MustCompile(`(?i)^titel\s+\d+$`),
	regexp.MustCompile(`(?i)^part\s+\d+$`),
	regexp.MustCompile(`(?i)^teil\s+\d+$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^\d+\.\s*$`),
	regexp.MustCompile(`^\d+\s*-\s*$`),
}

// TitleFor returns the title of 1-based track from titles, or "Chapter N"
// when the list is too short or the entry is blank.
func TitleFor(titles []string, track int) string {
	if track >= 1 && track <= len(titles) {
		if t := strings.TrimSpace(titles[track-1]); t != "" {
			return t
		}
	}
	return fmt.Sprintf("Chapter %d", track)
}

// IsGenericName returns true if the chapter name is a placeholder.
func IsGenericName(name string) bool {
	name = strings.TrimSpace(name)

	if name == "" {
		return true
	}

	for _, pattern := range genericPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}

	return false
}
