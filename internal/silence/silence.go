// Package silence detects quiet intervals in decoded audio.
package silence

import (
	"context"
	"fmt"
	"time"

	"github.com/listenupapp/tafcue/internal/chapters"
)

// Defaults used when Request fields are zero.
const (
	DefaultNoiseFloorDB = -40.0
	DefaultMinSilence   = 500 * time.Millisecond
)

// Request describes one probe run.
type Request struct {
	// Path is the decoded audio file.
	Path string
	// Hash identifies the audio content; it keys cached results.
	Hash         string
	NoiseFloorDB float64
	MinSilence   time.Duration
}

func (r Request) withDefaults() Request {
	if r.NoiseFloorDB == 0 {
		r.NoiseFloorDB = DefaultNoiseFloorDB
	}
	if r.MinSilence <= 0 {
		r.MinSilence = DefaultMinSilence
	}
	return r
}

// Params renders the thresholds in the form ffmpeg's silencedetect expects.
func (r Request) Params() string {
	r = r.withDefaults()
	return fmt.Sprintf("noise=%gdB:d=%g", r.NoiseFloorDB, r.MinSilence.Seconds())
}

// Probe returns the silence intervals of an audio file sorted by start.
// Failures are returned as errors; callers decide whether to degrade.
type Probe interface {
	Detect(ctx context.Context, req Request) ([]chapters.Interval, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context, req Request) ([]chapters.Interval, error)

// Detect calls f.
func (f ProbeFunc) Detect(ctx context.Context, req Request) ([]chapters.Interval, error) {
	return f(ctx, req)
}
