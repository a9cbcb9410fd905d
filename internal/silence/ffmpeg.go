package silence

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/listenupapp/tafcue/internal/chapters"
	"github.com/listenupapp/tafcue/internal/errors"
)

// DefaultTimeout bounds a single probe run.
const DefaultTimeout = 60 * time.Second

var (
	// [silencedetect @ 0x...] silence_start: 49.8
	startRegex = regexp.MustCompile(`silence_start:\s*(-?[0-9.]+(?:[eE][-+]?[0-9]+)?)`)
	// [silencedetect @ 0x...] silence_end: 50.3 | silence_duration: 0.5
	endRegex = regexp.MustCompile(`silence_end:\s*(-?[0-9.]+(?:[eE][-+]?[0-9]+)?)`)
)

// FFmpegProbe runs ffmpeg's silencedetect filter.
type FFmpegProbe struct {
	ffmpegPath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewFFmpegProbe locates ffmpeg (ffmpegPath overrides the PATH lookup).
func NewFFmpegProbe(ffmpegPath string, timeout time.Duration, logger *slog.Logger) (*FFmpegProbe, error) {
	if ffmpegPath == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
		ffmpegPath = path
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FFmpegProbe{ffmpegPath: ffmpegPath, timeout: timeout, logger: logger}, nil
}

// Args returns the ffmpeg arguments for req.
func Args(req Request) []string {
	return []string{
		"-hide_banner",
		"-nostats",
		"-i", req.Path,
		"-af", "silencedetect=" + req.Params(),
		"-f", "null",
		"-",
	}
}

// Detect implements Probe.
func (p *FFmpegProbe) Detect(ctx context.Context, req Request) ([]chapters.Interval, error) {
	req = req.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := Args(req)
	p.logger.Debug("executing ffmpeg", slog.Any("args", args))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...) //nolint:gosec // ffmpegPath is validated at construction
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), errors.CodeProbeFailed, "silence probe timed out after %s", p.timeout)
		}
		return nil, errors.Wrap(fmt.Errorf("%w: %s", err, lastLine(stderr.Bytes())), errors.CodeProbeFailed, "ffmpeg silencedetect failed")
	}

	intervals, err := Parse(&stderr)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProbeFailed, "read ffmpeg output")
	}

	p.logger.Debug("silence probe finished",
		"path", req.Path,
		"intervals", len(intervals),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return intervals, nil
}

// Parse reads silencedetect output and pairs each silence_start with the
// following silence_end. A start without an end (silence running to the end
// of the file) is dropped. Results are sorted by start.
func Parse(r io.Reader) ([]chapters.Interval, error) {
	var intervals []chapters.Interval
	var open *float64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := startRegex.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			v = max(v, 0)
			open = &v
			continue
		}

		if m := endRegex.FindStringSubmatch(line); m != nil && open != nil {
			end, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if end >= *open {
				intervals = append(intervals, chapters.Interval{Start: *open, End: end})
			}
			open = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(intervals, func(a, b chapters.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return intervals, nil
}

// lastLine returns the last non-empty line of ffmpeg output, which usually
// holds the error message.
func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
