// Package util provides common file and naming helpers.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// filenameExtras are the non-alphanumeric runes kept by CleanFilename.
const filenameExtras = " .-_()"

// CleanFilename turns a title into a file base name. Letters and digits of
// any script and the runes " .-_()" are kept; anything else becomes "_".
// The result is NFC-normalized and trimmed. An empty result is "untitled".
//
// Examples:
//
//	"Der Grüffelo"        → "Der Grüffelo"
//	"Bibi & Tina: Folge 1" → "Bibi _ Tina_ Folge 1"
//	"AC/DC"               → "AC_DC"
func CleanFilename(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsNumber(r):
			b.WriteRune(r)
		case strings.ContainsRune(filenameExtras, r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	// "." and ".." would escape the output directory.
	if cleaned == "" || strings.Trim(cleaned, ".") == "" {
		return "untitled"
	}
	return cleaned
}

// UniqueName returns name, or name with a " (n)" suffix starting at 2 when
// name is already in taken. Comparison ignores case so that outputs do not
// collide on case-insensitive filesystems. The returned name is added to
// taken.
func UniqueName(name string, taken map[string]bool) string {
	candidate := name
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	taken[strings.ToLower(candidate)] = true
	return candidate
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers see either the old content or all of data.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Remove the temp file on any failure below.
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	committed = true
	return nil
}

// FileExists reports whether path names an existing regular file with content.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
