// Package chapters turns container chapter markers into cue sheet tracks,
// moving each boundary onto nearby measured silence.
package chapters

import "log/slog"

// Interval is a quiet span of the decoded audio, in seconds.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Duration returns the length of the interval in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Distance returns 0 when t lies inside the interval (bounds included),
// otherwise the distance to the nearer bound.
func (iv Interval) Distance(t float64) float64 {
	if t >= iv.Start && t <= iv.End {
		return 0
	}
	return min(abs(t-iv.Start), abs(t-iv.End))
}

// PageResolver finds the granule at which a chapter marker begins.
// taf.PageIndex implements it.
type PageResolver interface {
	Resolve(marker uint64, depth int) (uint64, bool)
}

// Chapter is one reconciled track.
type Chapter struct {
	Track int    `json:"track" yaml:"track"`
	Title string `json:"title" yaml:"title"`
	// Marker is the page sequence number from the header.
	Marker uint64 `json:"marker" yaml:"marker"`
	// Theoretical is the start derived from the page index.
	Theoretical float64 `json:"theoretical" yaml:"theoretical"`
	// Start is the final track start, written as INDEX 01.
	Start float64 `json:"start" yaml:"start"`
	// Pregap is the silence onset before Start, written as INDEX 00.
	Pregap    float64 `json:"pregap,omitempty" yaml:"pregap,omitempty"`
	HasPregap bool    `json:"hasPregap" yaml:"hasPregap"`
	// Matched reports that Start was moved onto a silence interval.
	Matched bool `json:"matched" yaml:"matched"`
	// Unresolved reports that no page was found for the marker.
	Unresolved bool `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// LogValue implements slog.LogValuer.
func (c Chapter) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("track", c.Track),
		slog.Uint64("marker", c.Marker),
		slog.Float64("theoretical", c.Theoretical),
		slog.Float64("start", c.Start),
		slog.Bool("matched", c.Matched),
	}
	if c.HasPregap {
		attrs = append(attrs, slog.Float64("pregap", c.Pregap))
	}
	return slog.GroupValue(attrs...)
}

// AnalysisResult contains chapter title statistics.
type AnalysisResult struct {
	Total          int     `json:"total" yaml:"total"`
	Matched        int     `json:"matched" yaml:"matched"`
	Unresolved     int     `json:"unresolved" yaml:"unresolved"`
	GenericCount   int     `json:"genericCount" yaml:"genericCount"`
	GenericPercent float64 `json:"genericPercent" yaml:"genericPercent"`
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
