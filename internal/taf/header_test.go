package taf

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tafcue/internal/taf/taftest"
)

func TestScanChapters_FindsField(t *testing.T) {
	header := taftest.Header(DefaultHeaderSize, DefaultChapterTag, 0, 100, 250)

	got := ScanChapters(header, ScanOptions{Tag: DefaultChapterTag})

	assert.Equal(t, []uint64{0, 100, 250}, got)
}

func TestScanChapters_AddsZero(t *testing.T) {
	header := taftest.Header(64, DefaultChapterTag, 12, 40, 40, 90)

	got := ScanChapters(header, ScanOptions{})

	assert.Equal(t, []uint64{0, 12, 40, 90}, got)
}

func TestScanChapters_NoCandidate(t *testing.T) {
	assert.Equal(t, []uint64{0}, ScanChapters(make([]byte, 128), ScanOptions{}))
	assert.Equal(t, []uint64{0}, ScanChapters(nil, ScanOptions{}))
	assert.Equal(t, []uint64{0}, ScanChapters([]byte{0x22, 0x01}, ScanOptions{}))
}

func TestFindChapterCandidate_LongestWins(t *testing.T) {
	h := make([]byte, 64)
	// short valid list at 2
	copy(h[2:], []byte{0x22, 0x02, 0x05, 0x09})
	// longer valid list at 20
	copy(h[20:], []byte{0x22, 0x04, 0x01, 0x02, 0x03, 0x04})

	c, ok := FindChapterCandidate(h, 0x22)
	require.True(t, ok)
	assert.Equal(t, 20, c.Offset)
	assert.Equal(t, []uint64{1, 2, 3, 4}, c.Markers)
}

func TestFindChapterCandidate_TieKeepsFirst(t *testing.T) {
	h := make([]byte, 64)
	copy(h[4:], []byte{0x22, 0x02, 0x01, 0x02})
	copy(h[30:], []byte{0x22, 0x02, 0x07, 0x08})

	c, ok := FindChapterCandidate(h, 0x22)
	require.True(t, ok)
	assert.Equal(t, 4, c.Offset)
	assert.Equal(t, []uint64{1, 2}, c.Markers)
}

func TestFindChapterCandidate_RejectsDecreasing(t *testing.T) {
	h := make([]byte, 64)
	copy(h[0:], []byte{0x22, 0x03, 0x09, 0x05, 0x07})
	copy(h[20:], []byte{0x22, 0x02, 0x03, 0x04})

	c, ok := FindChapterCandidate(h, 0x22)
	require.True(t, ok)
	assert.Equal(t, []uint64{3, 4}, c.Markers)
}

func TestFindChapterCandidate_RejectsTruncated(t *testing.T) {
	// Length runs past the buffer.
	h := []byte{0x00, 0x22, 0x09, 0x01, 0x02}
	_, ok := FindChapterCandidate(h, 0x22)
	assert.False(t, ok)

	// A varint crosses the end of its field.
	h = []byte{0x22, 0x02, 0x01, 0x81, 0x01, 0x00, 0x00}
	_, ok = FindChapterCandidate(h, 0x22)
	assert.False(t, ok)
}

func TestScanChapters_AlwaysSortedWithZero(t *testing.T) {
	// Deterministic pseudo-random headers.
	seed := uint32(2463534242)
	next := func() byte {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		return byte(seed)
	}

	for range 200 {
		h := make([]byte, 512)
		for i := range h {
			h[i] = next()
			if h[i]%7 == 0 {
				h[i] = DefaultChapterTag
			}
		}

		got := ScanChapters(h, ScanOptions{})

		require.NotEmpty(t, got)
		assert.Equal(t, uint64(0), got[0])
		assert.True(t, slices.IsSorted(got))
		assert.Equal(t, len(got), len(slices.Compact(slices.Clone(got))))
	}
}
