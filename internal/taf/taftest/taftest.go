// Package taftest builds synthetic TAF files for tests.
package taftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// HeaderSize matches the production header size.
const HeaderSize = 4096

// Page describes one Ogg page to emit.
type Page struct {
	Sequence uint32
	Granule  uint64
	Payload  int
}

// Header returns a header of size bytes whose chapter field, introduced by
// tag, lists markers. The field starts at offset 8.
func Header(size int, tag byte, markers ...uint64) []byte {
	h := make([]byte, size)
	if len(markers) == 0 {
		return h
	}
	var field []byte
	for _, m := range markers {
		for m >= 0x80 {
			field = append(field, byte(m)|0x80)
			m >>= 7
		}
		field = append(field, byte(m))
	}
	h[8] = tag
	h[9] = byte(len(field))
	copy(h[10:], field)
	return h
}

// OggPage encodes one page with a single segment table entry per 255 bytes.
func OggPage(p Page) []byte {
	var lacing []byte
	rest := p.Payload
	for rest >= 255 {
		lacing = append(lacing, 255)
		rest -= 255
	}
	lacing = append(lacing, byte(rest))

	buf := make([]byte, 0, 27+len(lacing)+p.Payload)
	buf = append(buf, 'O', 'g', 'g', 'S', 0, 0)
	buf = binary.LittleEndian.AppendUint64(buf, p.Granule)
	buf = binary.LittleEndian.AppendUint32(buf, 0x7a7a)
	buf = binary.LittleEndian.AppendUint32(buf, p.Sequence)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = append(buf, byte(len(lacing)))
	buf = append(buf, lacing...)
	return append(buf, make([]byte, p.Payload)...)
}

// Audio concatenates pages.
func Audio(pages ...Page) []byte {
	var out []byte
	for _, p := range pages {
		out = append(out, OggPage(p)...)
	}
	return out
}

// File returns header and pages as one TAF image.
func File(markers []uint64, pages ...Page) []byte {
	return append(Header(HeaderSize, 0x22, markers...), Audio(pages...)...)
}

// Sample is the worked example: markers {0,100,250}, pages 99 and 249 at
// 50 s and 150 s.
func Sample() []byte {
	return File([]uint64{0, 100, 250},
		Page{Sequence: 0, Granule: 0, Payload: 10},
		Page{Sequence: 99, Granule: 2_400_000, Payload: 300},
		Page{Sequence: 249, Granule: 7_200_000, Payload: 20},
	)
}

// Write stores data as name in dir and returns the path.
func Write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
