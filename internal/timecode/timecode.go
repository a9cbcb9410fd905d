// Package timecode converts Ogg granule positions to seconds and to the
// MM:SS:FF notation of cue sheets.
package timecode

import (
	"fmt"
	"math"
	"time"
)

const (
	// FramesPerSecond is the cue sheet frame rate.
	FramesPerSecond = 75

	// DefaultSampleRate is the Opus granule rate.
	DefaultSampleRate = 48000

	// frameEpsilon absorbs float error so that 50.3 s stays at frame 22.
	frameEpsilon = 1e-6
)

// Seconds converts a granule position to seconds at rate samples per second.
func Seconds(granule uint64, rate int) float64 {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return float64(granule) / float64(rate)
}

// Frames returns the whole number of cue frames in seconds. Negative input
// counts as zero.
func Frames(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return int64(math.Floor(seconds*FramesPerSecond + frameEpsilon))
}

// Format renders seconds as MM:SS:FF. Minutes are not wrapped into hours.
func Format(seconds float64) string {
	total := Frames(seconds)
	minutes := total / (60 * FramesPerSecond)
	secs := (total / FramesPerSecond) % 60
	frames := total % FramesPerSecond
	return fmt.Sprintf("%02d:%02d:%02d", minutes, secs, frames)
}

// FromGranule formats a granule position directly.
func FromGranule(granule uint64, rate int) string {
	return Format(Seconds(granule, rate))
}

// Duration converts seconds to a time.Duration for logging.
func Duration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
}
