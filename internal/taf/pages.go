package taf

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"slices"
)

// CaptureSignature starts every Ogg page.
var CaptureSignature = []byte("OggS")

// pageDescriptorSize is the fixed part of a page header after the signature:
// version, flags, granule (u64), serial, sequence, checksum (u32 each) and
// segment count.
const pageDescriptorSize = 23

// Page is the descriptor of one Ogg page.
type Page struct {
	Offset   int
	Version  uint8
	Flags    uint8
	Granule  uint64
	Serial   uint32
	Sequence uint32
	Checksum uint32
	Segments uint8
	Length   int
}

// PageIndex maps page sequence numbers to granule positions.
type PageIndex map[uint32]uint64

// ParsePage decodes the page at off, which must hold the capture signature.
// It returns false when the descriptor or segment table is cut short.
func ParsePage(buf []byte, off int) (Page, bool) {
	d := off + len(CaptureSignature)
	if d+pageDescriptorSize > len(buf) {
		return Page{}, false
	}
	p := Page{
		Offset:   off,
		Version:  buf[d],
		Flags:    buf[d+1],
		Granule:  binary.LittleEndian.Uint64(buf[d+2:]),
		Serial:   binary.LittleEndian.Uint32(buf[d+10:]),
		Sequence: binary.LittleEndian.Uint32(buf[d+14:]),
		Checksum: binary.LittleEndian.Uint32(buf[d+18:]),
		Segments: buf[d+22],
	}

	table := d + pageDescriptorSize
	if table+int(p.Segments) > len(buf) {
		return Page{}, false
	}
	for _, lacing := range buf[table : table+int(p.Segments)] {
		p.Length += int(lacing)
	}
	return p, true
}

// Pages walks audio and calls fn for each page found. Bytes that do not
// start a page are skipped until the next signature. Checksums are not
// verified. Iteration stops at the end of data or when fn returns false.
func Pages(audio []byte, fn func(Page) bool) {
	off := 0
	for off < len(audio) {
		next := bytes.Index(audio[off:], CaptureSignature)
		if next < 0 {
			return
		}
		off += next

		p, ok := ParsePage(audio, off)
		if !ok {
			return
		}
		if !fn(p) {
			return
		}
		off = p.Offset + len(CaptureSignature) + pageDescriptorSize + int(p.Segments) + p.Length
	}
}

// IndexPages builds the sequence to granule map for audio, the file content
// after the header. A later page with a repeated sequence number overwrites
// the earlier one.
func IndexPages(audio []byte) PageIndex {
	idx := make(PageIndex)
	Pages(audio, func(p Page) bool {
		idx[p.Sequence] = p.Granule
		return true
	})
	return idx
}

// Lookup returns the granule recorded for page seq.
func (idx PageIndex) Lookup(seq uint32) (uint64, bool) {
	g, ok := idx[seq]
	return g, ok
}

// Resolve finds the granule at which chapter marker begins: the granule of
// page marker-1, or of the nearest earlier page present in the index. At most
// depth+1 pages are tried. The second result is false when none is found.
func (idx PageIndex) Resolve(marker uint64, depth int) (uint64, bool) {
	if marker == 0 {
		return 0, true
	}
	seq := int64(marker) - 1
	for step := 0; step <= depth && seq >= 0; step++ {
		if seq <= int64(^uint32(0)) {
			if g, ok := idx[uint32(seq)]; ok {
				return g, true
			}
		}
		seq--
	}
	return 0, false
}

// Sequences returns the indexed sequence numbers in ascending order.
func (idx PageIndex) Sequences() []uint32 {
	seqs := make([]uint32, 0, len(idx))
	for s := range idx {
		seqs = append(seqs, s)
	}
	slices.Sort(seqs)
	return seqs
}

// LastGranule returns the granule of the highest sequence number, which is
// the total length of the stream in samples.
func (idx PageIndex) LastGranule() uint64 {
	var last uint32
	var granule uint64
	for s, g := range idx {
		if s >= last {
			last, granule = s, g
		}
	}
	return granule
}

// LogValue summarises the index for structured logs.
func (idx PageIndex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pages", len(idx)),
		slog.Uint64("last_granule", idx.LastGranule()),
	)
}
