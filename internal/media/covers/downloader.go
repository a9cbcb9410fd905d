// Package covers fetches cover art for converted stories.
package covers

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/media/images"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024 // 10MB

	downloadTimeout = 30 * time.Second
)

// Result describes a stored cover.
type Result struct {
	Path   string
	Width  int
	Height int
	Size   int64
	Reused bool
}

// Downloader fetches cover images and stores them next to the output files.
type Downloader struct {
	httpClient *http.Client
	storage    *images.Storage
	logger     *slog.Logger
}

// NewDownloader creates a new cover downloader.
func NewDownloader(storage *images.Storage, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: downloadTimeout},
		storage:    storage,
		logger:     logger,
	}
}

// Download stores the image at url as the cover for name. An existing cover
// is reused without contacting the server.
func (d *Downloader) Download(ctx context.Context, name, url string) (*Result, error) {
	if d.storage.Exists(name) {
		return &Result{Path: d.storage.Path(name), Reused: true}, nil
	}
	if url == "" {
		return nil, errors.NotFoundf("no cover URL for %s", name)
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDownloadFailed, "create cover request")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDownloadFailed, "download cover %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(nil, errors.CodeDownloadFailed, "download cover %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDownloadFailed, "read cover %s", url)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(nil, errors.CodeDownloadFailed, "download cover %s: empty body", url)
	}

	result := &Result{Path: d.storage.Path(name), Size: int64(len(data))}
	if w, h, ok := dimensions(data); ok {
		result.Width, result.Height = w, h
	} else {
		// Still stored; the player decides whether it can show it.
		d.logger.Warn("unrecognised cover format", "name", name, "url", url)
	}

	if err := d.storage.Save(name, data); err != nil {
		return nil, errors.WriteError(err, result.Path)
	}

	d.logger.Info("downloaded cover",
		"name", name,
		"size", result.Size,
		"width", result.Width,
		"height", result.Height,
	)
	return result, nil
}

// dimensions reads width and height from JPEG or PNG headers.
func dimensions(data []byte) (width, height int, ok bool) {
	if w, h, ok := jpegDimensions(data); ok {
		return w, h, true
	}
	return pngDimensions(data)
}

func jpegDimensions(data []byte) (width, height int, ok bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0, false
	}

	i := 2
	for i+9 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}

		switch data[i+1] {
		case 0xC0, 0xC1, 0xC2: // SOF0, SOF1, SOF2
			height = int(binary.BigEndian.Uint16(data[i+5 : i+7]))
			width = int(binary.BigEndian.Uint16(data[i+7 : i+9]))
			return width, height, true
		}

		i += 2 + int(binary.BigEndian.Uint16(data[i+2:i+4]))
	}
	return 0, 0, false
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

func pngDimensions(data []byte) (width, height int, ok bool) {
	if len(data) < 24 || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return 0, 0, false
	}
	width = int(binary.BigEndian.Uint32(data[16:20]))
	height = int(binary.BigEndian.Uint32(data[20:24]))
	return width, height, true
}

// String implements fmt.Stringer for log output.
func (r *Result) String() string {
	if r.Reused {
		return fmt.Sprintf("%s (existing)", r.Path)
	}
	return fmt.Sprintf("%s (%dx%d, %d bytes)", r.Path, r.Width, r.Height, r.Size)
}
