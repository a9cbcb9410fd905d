// Package transcode turns the Ogg/Opus audio region of a TAF file into an
// MP3 using an external ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/audiometa"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/util"
)

var _ Encoder = (*FFmpegEncoder)(nil)

// DefaultQuality is the libmp3lame VBR quality used when none is set.
const DefaultQuality = 2

// MaxCommentRunes bounds the ID3 comment written from a description.
const MaxCommentRunes = 200

// Request describes one encode.
type Request struct {
	// Audio is the Ogg stream that follows the TAF header.
	Audio []byte
	// Output is the final MP3 path.
	Output string
	// CoverPath is embedded as front cover when non-empty.
	CoverPath string
	Title     string
	Artist    string
	Album     string
	Genre     string
	// Comment is cut to MaxCommentRunes.
	Comment string
	Quality int
}

// Result describes the MP3 on disk.
type Result struct {
	Path     string
	Duration time.Duration
	Reused   bool
}

// Encoder produces an MP3 for a Request.
type Encoder interface {
	Encode(ctx context.Context, req Request) (*Result, error)
}

// FFmpegEncoder encodes with ffmpeg's libmp3lame.
type FFmpegEncoder struct {
	ffmpegPath string
	logger     *slog.Logger
}

// NewFFmpegEncoder locates ffmpeg (ffmpegPath overrides the PATH lookup).
func NewFFmpegEncoder(ffmpegPath string, logger *slog.Logger) (*FFmpegEncoder, error) {
	if ffmpegPath == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
		ffmpegPath = path
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("using ffmpeg", slog.String("path", ffmpegPath))
	return &FFmpegEncoder{ffmpegPath: ffmpegPath, logger: logger}, nil
}

// Args returns the ffmpeg arguments that write the MP3 for req to out.
func Args(req Request, out string) []string {
	args := []string{"-hide_banner", "-nostats", "-y", "-f", "ogg", "-i", "pipe:0"}

	if req.CoverPath != "" {
		args = append(args,
			"-i", req.CoverPath,
			"-map", "0:a",
			"-map", "1:v",
			"-c:v", "mjpeg",
			"-disposition:v", "attached_pic",
			"-metadata:s:v", "title=Album cover",
			"-metadata:s:v", "comment=Cover (front)",
			"-id3v2_version", "3",
		)
	}

	quality := req.Quality
	if quality < 0 || quality > 9 {
		quality = DefaultQuality
	}
	args = append(args, "-c:a", "libmp3lame", "-q:a", strconv.Itoa(quality))

	tags := [][2]string{
		{"title", req.Title},
		{"artist", req.Artist},
		{"album", req.Album},
		{"genre", req.Genre},
		{"comment", truncateRunes(req.Comment, MaxCommentRunes)},
	}
	for _, kv := range tags {
		if kv[1] != "" {
			args = append(args, "-metadata", kv[0]+"="+kv[1])
		}
	}

	return append(args, "-f", "mp3", out)
}

// Encode implements Encoder. An existing non-empty output is reused.
func (e *FFmpegEncoder) Encode(ctx context.Context, req Request) (*Result, error) {
	logger := e.logger.With("output", req.Output)

	if util.FileExists(req.Output) {
		logger.Info("reusing existing mp3")
		dur, err := Duration(ctx, req.Output)
		if err != nil {
			logger.Warn("could not read duration of existing mp3", "error", err)
		}
		return &Result{Path: req.Output, Duration: dur, Reused: true}, nil
	}

	part := req.Output + ".part"
	args := Args(req, part)
	logger.Debug("executing ffmpeg", slog.Any("args", args))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...) //nolint:gosec // ffmpegPath is validated at construction
	cmd.Stdin = &progressReader{
		r:     bytes.NewReader(req.Audio),
		total: int64(len(req.Audio)),
		report: func(pct int) {
			logger.Info("transcoding", "progress", pct)
		},
	}
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		_ = os.Remove(part)
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.CodeTranscodeFailed, "transcode cancelled")
		}
		return nil, errors.Wrap(fmt.Errorf("%w: %s", err, lastLine(stderr.Bytes())), errors.CodeTranscodeFailed, "ffmpeg failed")
	}

	dur, err := Duration(ctx, part)
	if err != nil {
		_ = os.Remove(part)
		return nil, errors.Wrap(err, errors.CodeTranscodeFailed, "verify mp3")
	}

	if err := os.Rename(part, req.Output); err != nil {
		_ = os.Remove(part)
		return nil, errors.WriteError(err, req.Output)
	}

	logger.Info("transcode complete",
		"duration", dur.Round(time.Second),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return &Result{Path: req.Output, Duration: dur}, nil
}

// Duration reads the playing time of an audio file.
func Duration(ctx context.Context, path string) (time.Duration, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only handle

	if file.Audio.Duration <= 0 {
		return 0, fmt.Errorf("%s: no duration", path)
	}
	return file.Audio.Duration, nil
}

// progressReader calls report each time another 5% of total has been read.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 && p.report != nil {
		pct := int(p.read * 100 / p.total)
		if pct-p.last >= 5 || (pct == 100 && p.last != 100) {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n]))
}
