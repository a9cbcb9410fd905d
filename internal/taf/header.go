package taf

import (
	"slices"
)

// DefaultChapterTag introduces the chapter list field in the header.
const DefaultChapterTag byte = 0x22

// ScanOptions controls the chapter search.
type ScanOptions struct {
	// Tag is the byte that precedes the length of the chapter list.
	Tag byte
}

// Candidate is a decoded chapter list found at Offset.
type Candidate struct {
	Offset  int
	Markers []uint64
}

// FindChapterCandidate scans header byte by byte for the chapter list.
//
// At each offset holding tag, the next byte is taken as a length and that
// many bytes are decoded as packed varints. A candidate must decode exactly
// within its bounds and be non-decreasing. The longest one wins; a later
// candidate replaces the current best only when strictly longer, so ties go
// to the lowest offset.
func FindChapterCandidate(header []byte, tag byte) (Candidate, bool) {
	var best Candidate
	found := false

	for i := 0; i+2 < len(header); i++ {
		if header[i] != tag {
			continue
		}
		markers, ok := decodePacked(header, i+2, int(header[i+1]))
		if !ok || len(markers) <= len(best.Markers) {
			continue
		}
		if !isNonDecreasing(markers) {
			continue
		}
		best = Candidate{Offset: i, Markers: markers}
		found = true
	}

	return best, found
}

// ScanChapters returns the chapter markers in header: the best candidate
// united with 0, deduplicated and sorted. A header without any usable
// candidate yields just {0}.
func ScanChapters(header []byte, opts ScanOptions) []uint64 {
	tag := opts.Tag
	if tag == 0 {
		tag = DefaultChapterTag
	}

	markers := []uint64{0}
	if c, ok := FindChapterCandidate(header, tag); ok {
		markers = append(markers, c.Markers...)
	}

	slices.Sort(markers)
	return slices.Compact(markers)
}

// decodePacked decodes varints from buf[start:start+n]. It fails when the
// field runs past buf or a varint crosses the field end.
func decodePacked(buf []byte, start, n int) ([]uint64, bool) {
	end := start + n
	if end > len(buf) {
		return nil, false
	}
	// Bounded at the field end: a last varint may not borrow bytes from the
	// rest of the header, unlike a reader over the whole header would allow.
	field := buf[:end]

	var values []uint64
	for off := start; off < end; {
		v, next, err := ReadVarint(field, off)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
		off = next
	}
	return values, true
}

func isNonDecreasing(values []uint64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return false
		}
	}
	return true
}
