package taf

import (
	"fmt"
	"os"

	"github.com/listenupapp/tafcue/internal/errors"
)

// DefaultHeaderSize is the size of the header block before the Ogg stream.
const DefaultHeaderSize = 4096

// File is a TAF file held in memory.
type File struct {
	Path   string
	Header []byte
	Audio  []byte
}

// Split separates data into header and audio regions. Data shorter than
// headerSize is a TruncatedData error.
func Split(data []byte, headerSize int) (header, audio []byte, err error) {
	if headerSize <= 0 {
		return nil, nil, errors.Validationf("header size must be positive, got %d", headerSize)
	}
	if len(data) < headerSize {
		return nil, nil, errors.TruncatedDataf("file is %d bytes, shorter than the %d byte header", len(data), headerSize)
	}
	return data[:headerSize], data[headerSize:], nil
}

// Open reads the whole file at path and splits it.
func Open(path string, headerSize int) (*File, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from the scanned source directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("taf file %s", path).WithCause(err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	header, audio, err := Split(data, headerSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &File{Path: path, Header: header, Audio: audio}, nil
}

// Chapters returns the chapter markers of f.
func (f *File) Chapters(opts ScanOptions) []uint64 {
	return ScanChapters(f.Header, opts)
}

// Index returns the page index of f.
func (f *File) Index() PageIndex {
	return IndexPages(f.Audio)
}
