package taf

import (
	"github.com/listenupapp/tafcue/internal/errors"
)

// maxVarintLen is the longest encoding of a uint64.
const maxVarintLen = 10

// ReadVarint decodes one base-128 varint starting at off. Groups are little
// endian and the high bit of each byte marks a continuation. It returns the
// value and the offset just past the last byte consumed.
func ReadVarint(buf []byte, off int) (uint64, int, error) {
	var value uint64
	var shift uint
	for i := off; ; i++ {
		if i < 0 || i >= len(buf) {
			return 0, off, errors.TruncatedDataf("varint at offset %d runs past end of buffer", off)
		}
		if i-off == maxVarintLen {
			return 0, off, errors.TruncatedDataf("varint at offset %d overflows 64 bits", off)
		}
		b := buf[i]
		if i-off == maxVarintLen-1 && b > 1 {
			return 0, off, errors.TruncatedDataf("varint at offset %d overflows 64 bits", off)
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
}

// AppendVarint appends the base-128 encoding of v to buf.
func AppendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
