// Package pipeline converts a single TAF file: identification, cover,
// transcode, silence probe, chapter reconciliation and cue sheet.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/listenupapp/tafcue/internal/chapters"
	"github.com/listenupapp/tafcue/internal/cuesheet"
	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/media/covers"
	"github.com/listenupapp/tafcue/internal/metadata"
	"github.com/listenupapp/tafcue/internal/silence"
	"github.com/listenupapp/tafcue/internal/store"
	"github.com/listenupapp/tafcue/internal/taf"
	"github.com/listenupapp/tafcue/internal/transcode"
	"github.com/listenupapp/tafcue/internal/util"
)

// Options are the per-file conversion settings.
type Options struct {
	OutputDir  string
	HeaderSize int
	ChapterTag byte
	SampleRate int
	Depth      int
	Window     time.Duration
	PregapMin  time.Duration

	NoiseFloorDB float64
	MinSilence   time.Duration

	Quality int
}

// CoverFetcher stores the cover for a name.
type CoverFetcher interface {
	Download(ctx context.Context, name, url string) (*covers.Result, error)
}

// CoverExtractor recovers a cover embedded in existing audio.
type CoverExtractor interface {
	Extract(ctx context.Context, audioPath, name string) (bool, error)
}

// DetailScraper fetches enrichment details from a product page.
type DetailScraper interface {
	Scrape(ctx context.Context, pageURL string) (*metadata.Details, error)
}

// ConversionStore records finished conversions.
type ConversionStore interface {
	SaveConversion(ctx context.Context, c *store.Conversion) error
	GetConversion(ctx context.Context, hash string) (*store.Conversion, error)
	ListConversions(ctx context.Context) ([]*store.Conversion, error)
}

// Deps are the optional collaborators. A nil field disables its step.
type Deps struct {
	DB        *metadata.DB
	Encoder   transcode.Encoder
	Probe     silence.Probe
	Covers    CoverFetcher
	Extractor CoverExtractor
	Scraper   DetailScraper
	Store     ConversionStore
}

// Identity is what is known about a file before conversion.
type Identity struct {
	Source string
	Hash   string
	File   *taf.File
	// Entry is nil when the database has no record for Hash.
	Entry *metadata.Entry
	// Name is the sanitised output base name before de-duplication.
	Name string
}

// Title returns the database title or the source base name.
func (id *Identity) Title() string {
	if id.Entry != nil && id.Entry.Title != "" {
		return id.Entry.Title
	}
	return strings.TrimSuffix(filepath.Base(id.Source), filepath.Ext(id.Source))
}

// Performer returns the series from the database, falling back to Title.
func (id *Identity) Performer() string {
	if id.Entry != nil {
		if p := id.Entry.Performer(); p != "" {
			return p
		}
	}
	return id.Title()
}

// Result is the outcome of converting one file.
type Result struct {
	Source    string
	Hash      string
	Name      string
	MP3Path   string
	CuePath   string
	CoverPath string
	Entry     *metadata.Entry
	Chapters  []chapters.Chapter
	Analysis  chapters.AnalysisResult
	// Warnings lists steps that failed without failing the file.
	Warnings []string
	Duration time.Duration
	// Reused reports that a recorded conversion of the same audio was kept.
	Reused bool
}

// Pipeline converts TAF files. It holds no per-file state and is safe for
// concurrent use.
type Pipeline struct {
	opts   Options
	deps   Deps
	logger *slog.Logger
}

// New creates a pipeline.
func New(opts Options, deps Deps, logger *slog.Logger) *Pipeline {
	if opts.HeaderSize <= 0 {
		opts.HeaderSize = taf.DefaultHeaderSize
	}
	if opts.ChapterTag == 0 {
		opts.ChapterTag = taf.DefaultChapterTag
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.DB == nil {
		deps.DB = metadata.NewDB(nil)
	}
	return &Pipeline{opts: opts, deps: deps, logger: logger}
}

// Identify reads path, hashes its audio and looks it up in the database.
func (p *Pipeline) Identify(_ context.Context, path string) (*Identity, error) {
	file, err := taf.Open(path, p.opts.HeaderSize)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		Source: path,
		Hash:   metadata.HashAudio(file.Audio),
		File:   file,
	}
	if entry, ok := p.deps.DB.Lookup(id.Hash); ok {
		id.Entry = entry
	} else {
		p.logger.Debug("no database entry", "path", path, "hash", id.Hash)
	}
	id.Name = util.CleanFilename(id.Title())

	return id, nil
}

// Process converts an identified file to {name}.mp3 and {name}.cue in the
// output directory. Only header errors, transcode failures and write errors
// fail the file; the other steps degrade and add a warning.
func (p *Pipeline) Process(ctx context.Context, id *Identity, name string) (*Result, error) {
	start := time.Now()
	logger := p.logger.With("file", filepath.Base(id.Source), "name", name)

	res := &Result{
		Source:  id.Source,
		Hash:    id.Hash,
		Name:    name,
		MP3Path: filepath.Join(p.opts.OutputDir, name+".mp3"),
		CuePath: filepath.Join(p.opts.OutputDir, name+".cue"),
		Entry:   id.Entry,
	}
	warn := func(step string, err error) {
		logger.Warn(step+" failed, continuing", "error", err)
		res.Warnings = append(res.Warnings, step+": "+err.Error())
	}

	markers := id.File.Chapters(taf.ScanOptions{Tag: p.opts.ChapterTag})
	index := id.File.Index()
	logger.Debug("parsed container", "markers", len(markers), "pages", len(index))

	if id.Entry != nil && p.deps.Scraper != nil && id.Entry.NeedsScrape() {
		details, err := p.deps.Scraper.Scrape(ctx, id.Entry.Web)
		if err != nil {
			warn("scrape", err)
		} else {
			res.Entry = id.Entry.Merge(details)
		}
	}

	res.CoverPath = p.cover(ctx, id, name, res.MP3Path, warn)

	if prev := p.converted(ctx, id.Hash, res.MP3Path); prev != nil {
		logger.Info("already converted, skipping transcode", "convertedAt", prev.ConvertedAt)
		res.Duration = prev.Duration
		res.Reused = true
	} else if p.deps.Encoder != nil {
		enc, err := p.deps.Encoder.Encode(ctx, transcode.Request{
			Audio:     id.File.Audio,
			Output:    res.MP3Path,
			CoverPath: res.CoverPath,
			Title:     id.Title(),
			Artist:    id.Performer(),
			Album:     seriesOf(id.Entry),
			Genre:     genreOf(res.Entry),
			Comment:   descriptionOf(res.Entry),
			Quality:   p.opts.Quality,
		})
		if err != nil {
			return nil, err
		}
		res.Duration = enc.Duration
	}

	silences := p.silences(ctx, id.Hash, res.MP3Path, warn)

	var titles []string
	if id.Entry != nil {
		titles = id.Entry.Tracks
	}
	res.Chapters = chapters.Reconcile(chapters.Input{
		Markers:    markers,
		Pages:      index,
		SampleRate: p.opts.SampleRate,
		Depth:      p.opts.Depth,
		Window:     p.opts.Window,
		PregapMin:  p.opts.PregapMin,
		Silences:   silences,
		Titles:     titles,
		Logger:     logger,
	})
	res.Analysis = chapters.Analyze(res.Chapters)

	sheet := cuesheet.New(id.Title(), id.Performer(), res.MP3Path, res.Chapters)
	if err := sheet.WriteFile(res.CuePath); err != nil {
		return nil, err
	}

	if p.deps.Store != nil {
		err := p.deps.Store.SaveConversion(ctx, &store.Conversion{
			Hash:        id.Hash,
			Source:      id.Source,
			Name:        name,
			MP3Path:     res.MP3Path,
			CuePath:     res.CuePath,
			CoverPath:   res.CoverPath,
			Tracks:      res.Analysis.Total,
			Matched:     res.Analysis.Matched,
			Duration:    res.Duration,
			ConvertedAt: time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("failed to record conversion", "error", err)
		}
	}

	logger.Info("file converted",
		"tracks", res.Analysis.Total,
		"matched", res.Analysis.Matched,
		"unresolved", res.Analysis.Unresolved,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// converted returns the recorded conversion of hash when its MP3 is still at
// mp3Path, or nil.
func (p *Pipeline) converted(ctx context.Context, hash, mp3Path string) *store.Conversion {
	if p.deps.Store == nil {
		return nil
	}
	c, err := p.deps.Store.GetConversion(ctx, hash)
	if err != nil {
		p.logger.Warn("failed to read conversion record", "hash", hash, "error", err)
		return nil
	}
	if c == nil || c.MP3Path != mp3Path || !util.FileExists(mp3Path) {
		return nil
	}
	return c
}

// Previous returns the recorded conversions whose MP3 still exists, with
// entries from the current database.
func (p *Pipeline) Previous(ctx context.Context) ([]*Result, error) {
	if p.deps.Store == nil {
		return nil, nil
	}
	records, err := p.deps.Store.ListConversions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list conversions")
	}

	out := make([]*Result, 0, len(records))
	for _, c := range records {
		if !util.FileExists(c.MP3Path) {
			p.logger.Debug("recorded mp3 is gone", "path", c.MP3Path)
			continue
		}
		entry, _ := p.deps.DB.Lookup(c.Hash)
		out = append(out, &Result{
			Source:    c.Source,
			Hash:      c.Hash,
			Name:      c.Name,
			MP3Path:   c.MP3Path,
			CuePath:   c.CuePath,
			CoverPath: c.CoverPath,
			Entry:     entry,
			Duration:  c.Duration,
			Reused:    true,
		})
	}
	return out, nil
}

// cover returns the stored cover path, or "" when there is none.
func (p *Pipeline) cover(ctx context.Context, id *Identity, name, mp3Path string, warn func(string, error)) string {
	if p.deps.Covers != nil && id.Entry != nil && id.Entry.Pic != "" {
		c, err := p.deps.Covers.Download(ctx, name, id.Entry.Pic)
		if err == nil {
			return c.Path
		}
		warn("cover", err)
	}

	if p.deps.Extractor != nil && util.FileExists(mp3Path) {
		ok, err := p.deps.Extractor.Extract(ctx, mp3Path, name)
		if err != nil {
			warn("embedded cover", err)
		} else if ok {
			return filepath.Join(p.opts.OutputDir, name+".jpg")
		}
	}
	return ""
}

// silences probes mp3Path. Failures and a missing file yield nil.
func (p *Pipeline) silences(ctx context.Context, hash, mp3Path string, warn func(string, error)) []chapters.Interval {
	if p.deps.Probe == nil {
		return nil
	}
	if !util.FileExists(mp3Path) {
		p.logger.Debug("no audio to probe", "path", mp3Path)
		return nil
	}

	intervals, err := p.deps.Probe.Detect(ctx, silence.Request{
		Path:         mp3Path,
		Hash:         hash,
		NoiseFloorDB: p.opts.NoiseFloorDB,
		MinSilence:   p.opts.MinSilence,
	})
	if err != nil {
		if !errors.CodeOf(err).Degraded() {
			err = errors.Wrap(err, errors.CodeProbeFailed, "silence probe")
		}
		warn("silence probe", err)
		return nil
	}
	return intervals
}

func seriesOf(e *metadata.Entry) string {
	if e == nil {
		return ""
	}
	return e.Series
}

func genreOf(e *metadata.Entry) string {
	if e == nil || e.Genre == "" {
		return metadata.DefaultGenre
	}
	return e.Genre
}

func descriptionOf(e *metadata.Entry) string {
	if e == nil {
		return ""
	}
	return e.Description
}
