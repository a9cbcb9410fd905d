package chapters

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/listenupapp/tafcue/internal/timecode"
)

// tolerance absorbs float error at the window and pre-gap thresholds.
const tolerance = 1e-9

// Defaults for Input fields left at zero.
const (
	DefaultDepth     = 100
	DefaultPregapMin = 500 * time.Millisecond
)

// Input is everything needed to reconcile one file.
type Input struct {
	// Markers are the sorted chapter markers; the first is 0.
	Markers []uint64
	Pages   PageResolver
	// SampleRate converts granules to seconds.
	SampleRate int
	// Depth bounds the backward page search per marker. Negative selects
	// DefaultDepth.
	Depth int
	// Window is the largest accepted distance to a silence interval.
	Window time.Duration
	// PregapMin is the shortest matched silence that yields a pre-gap.
	PregapMin time.Duration
	Silences  []Interval
	Titles    []string
	Logger    *slog.Logger
}

// Reconcile computes one chapter per marker. Track 1 starts at 0. Every
// other track starts at its theoretical time unless a silence interval lies
// within Window, in which case it starts where that silence ends.
// Reconcile is deterministic and never fails.
func Reconcile(in Input) []Chapter {
	log := in.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	depth := in.Depth
	if depth < 0 {
		depth = DefaultDepth
	}
	pregapMin := in.PregapMin
	if pregapMin <= 0 {
		pregapMin = DefaultPregapMin
	}

	markers := in.Markers
	if len(markers) == 0 {
		markers = []uint64{0}
	}
	silences := sortedIntervals(in.Silences)
	window := in.Window.Seconds()

	chapters := make([]Chapter, 0, len(markers))
	for i, marker := range markers {
		track := i + 1
		ch := Chapter{
			Track:  track,
			Title:  TitleFor(in.Titles, track),
			Marker: marker,
		}

		if i == 0 {
			chapters = append(chapters, ch)
			continue
		}

		var granule uint64
		found := false
		if in.Pages != nil {
			granule, found = in.Pages.Resolve(marker, depth)
		}
		if !found {
			log.Warn("no page found for chapter marker, using 0",
				"track", track, "marker", marker, "depth", depth)
			ch.Unresolved = true
		}
		ch.Theoretical = timecode.Seconds(granule, in.SampleRate)
		ch.Start = ch.Theoretical

		if iv, dist, ok := Closest(ch.Theoretical, silences); ok && dist <= window+tolerance {
			ch.Start = iv.End
			ch.Matched = true
			if iv.Duration() >= pregapMin.Seconds()-tolerance {
				ch.Pregap = iv.Start
				ch.HasPregap = true
			}
		}

		log.Debug("chapter reconciled", "chapter", ch)
		chapters = append(chapters, ch)
	}

	return chapters
}

// Closest returns the interval nearest to t and its distance. Intervals are
// visited in order and only a strictly smaller distance replaces the current
// best, so the first of equally distant intervals wins.
func Closest(t float64, intervals []Interval) (Interval, float64, bool) {
	var best Interval
	bestDist := 0.0
	found := false
	for _, iv := range intervals {
		d := iv.Distance(t)
		if !found || d < bestDist {
			best, bestDist, found = iv, d, true
		}
	}
	return best, bestDist, found
}

// sortedIntervals returns a copy of intervals ordered by start then end.
func sortedIntervals(intervals []Interval) []Interval {
	out := slices.Clone(intervals)
	slices.SortStableFunc(out, func(a, b Interval) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
	return out
}

// Analyze returns statistics about reconciled chapters.
func Analyze(chapters []Chapter) AnalysisResult {
	if len(chapters) == 0 {
		return AnalysisResult{}
	}

	res := AnalysisResult{Total: len(chapters)}
	for _, ch := range chapters {
		if ch.Matched {
			res.Matched++
		}
		if ch.Unresolved {
			res.Unresolved++
		}
		if IsGenericName(ch.Title) {
			res.GenericCount++
		}
	}
	res.GenericPercent = float64(res.GenericCount) / float64(res.Total)
	return res
}
