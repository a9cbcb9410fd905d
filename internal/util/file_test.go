package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Der Grüffelo", "Der Grüffelo"},
		{"Bibi & Tina: Folge 1", "Bibi _ Tina_ Folge 1"},
		{"AC/DC", "AC_DC"},
		{"  spaced (live) - v1.2_x  ", "spaced (live) - v1.2_x"},
		{"Gru\u0308ffelo", "Gr\u00fcffelo"}, // decomposed umlaut is composed
		{"", "untitled"},
		{"..", "untitled"},
		{"???", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanFilename(tt.input))
		})
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{}

	assert.Equal(t, "Story", UniqueName("Story", taken))
	assert.Equal(t, "Story (2)", UniqueName("Story", taken))
	assert.Equal(t, "story (3)", UniqueName("story", taken))
	assert.Equal(t, "Other", UniqueName("Other", taken))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.cue")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.cue")

	err := WriteFileAtomic(path, []byte("x"), 0o644)

	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o600))

	assert.False(t, FileExists(empty))
	assert.True(t, FileExists(full))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))
}
