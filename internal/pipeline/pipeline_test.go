package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tafcue/internal/chapters"
	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/media/covers"
	"github.com/listenupapp/tafcue/internal/metadata"
	"github.com/listenupapp/tafcue/internal/silence"
	"github.com/listenupapp/tafcue/internal/store"
	"github.com/listenupapp/tafcue/internal/taf/taftest"
	"github.com/listenupapp/tafcue/internal/transcode"
)

// fakeEncoder writes a placeholder MP3 and remembers the request.
type fakeEncoder struct {
	last transcode.Request
	err  error
}

func (f *fakeEncoder) Encode(_ context.Context, req transcode.Request) (*transcode.Result, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(req.Output, []byte("mp3"), 0o600); err != nil {
		return nil, err
	}
	return &transcode.Result{Path: req.Output, Duration: 3 * time.Minute}, nil
}

type fakeCovers struct{ dir string }

func (f fakeCovers) Download(_ context.Context, name, url string) (*covers.Result, error) {
	if url == "" {
		return nil, errors.NotFoundf("no url")
	}
	path := filepath.Join(f.dir, name+".jpg")
	return &covers.Result{Path: path}, os.WriteFile(path, []byte("jpg"), 0o600)
}

type fakeScraper struct{ details *metadata.Details }

func (f fakeScraper) Scrape(context.Context, string) (*metadata.Details, error) {
	return f.details, nil
}

type memStore struct{ saved []*store.Conversion }

func (m *memStore) SaveConversion(_ context.Context, c *store.Conversion) error {
	m.saved = append(m.saved, c)
	return nil
}

func (m *memStore) GetConversion(_ context.Context, hash string) (*store.Conversion, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Hash == hash {
			return m.saved[i], nil
		}
	}
	return nil, nil
}

func (m *memStore) ListConversions(context.Context) ([]*store.Conversion, error) {
	return m.saved, nil
}

func testOptions(out string) Options {
	return Options{
		OutputDir:  out,
		SampleRate: 48000,
		Depth:      100,
		Window:     30 * time.Second,
		PregapMin:  500 * time.Millisecond,
		Quality:    2,
	}
}

func sampleDB(hash string) *metadata.DB {
	return metadata.NewDB(map[string]*metadata.Entry{
		hash: {
			Title:   "Der Grüffelo - Folge 1",
			Series:  "Der Grüffelo",
			Episode: "Folge 1",
			Tracks:  []string{"Intro", "Im Wald"},
			Pic:     "https://example.invalid/p.png",
			Web:     "https://example.invalid/p",
		},
	})
}

func TestPipeline_ConvertsSample(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "500304E0.taf", taftest.Sample())
	out := t.TempDir()
	hash := metadata.HashAudio(taftest.Sample()[taftest.HeaderSize:])

	enc := &fakeEncoder{}
	st := &memStore{}
	p := New(testOptions(out), Deps{
		DB:      sampleDB(hash),
		Encoder: enc,
		Probe: silence.ProbeFunc(func(context.Context, silence.Request) ([]chapters.Interval, error) {
			return []chapters.Interval{{Start: 49.8, End: 50.3}}, nil
		}),
		Covers:  fakeCovers{dir: out},
		Scraper: fakeScraper{details: &metadata.Details{Age: 4, Description: "Eine Maus"}},
		Store:   st,
	}, nil)

	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, hash, id.Hash)
	assert.Equal(t, "Der Grüffelo - Folge 1", id.Name)

	res, err := p.Process(context.Background(), id, id.Name)
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, filepath.Join(out, "Der Grüffelo - Folge 1.mp3"), res.MP3Path)
	assert.Equal(t, filepath.Join(out, "Der Grüffelo - Folge 1.jpg"), res.CoverPath)
	assert.Equal(t, res.CoverPath, enc.last.CoverPath)
	assert.Equal(t, "Der Grüffelo", enc.last.Artist)
	assert.Equal(t, metadata.DefaultGenre, enc.last.Genre)
	assert.Equal(t, "Eine Maus", enc.last.Comment)
	assert.Equal(t, 4, res.Entry.Age)
	assert.Equal(t, "Eine Maus", res.Entry.Description)
	assert.Equal(t, 3, res.Analysis.Total)
	assert.Equal(t, 1, res.Analysis.Matched)

	cue, err := os.ReadFile(res.CuePath)
	require.NoError(t, err)
	assert.Equal(t, `REM CREATED BY TAFCUE
TITLE "Der Grüffelo - Folge 1"
PERFORMER "Der Grüffelo"
FILE "Der Grüffelo - Folge 1.mp3" MP3
  TRACK 01 AUDIO
    TITLE "Intro"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Im Wald"
    INDEX 00 00:49:60
    INDEX 01 00:50:22
  TRACK 03 AUDIO
    TITLE "Chapter 3"
    INDEX 01 02:30:00
`, string(cue))

	require.Len(t, st.saved, 1)
	assert.Equal(t, hash, st.saved[0].Hash)
	assert.Equal(t, 3, st.saved[0].Tracks)
	assert.Equal(t, 3*time.Minute, st.saved[0].Duration)
}

func TestPipeline_RecordedConversionSkipsTranscode(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "a.taf", taftest.Sample())
	out := t.TempDir()
	st := &memStore{}

	first := &fakeEncoder{}
	p := New(testOptions(out), Deps{Encoder: first, Store: st}, nil)
	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)
	_, err = p.Process(context.Background(), id, "a")
	require.NoError(t, err)
	require.Len(t, st.saved, 1)

	// A second run over the same audio keeps the recorded MP3.
	second := &fakeEncoder{err: errors.Wrap(nil, errors.CodeTranscodeFailed, "must not run")}
	p = New(testOptions(out), Deps{Encoder: second, Store: st}, nil)
	res, err := p.Process(context.Background(), id, "a")
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Equal(t, 3*time.Minute, res.Duration)
	assert.Empty(t, second.last.Output, "encoder was not called")
	assert.FileExists(t, res.CuePath)
}

func TestPipeline_RecordWithMissingMP3IsReencoded(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "a.taf", taftest.Sample())
	out := t.TempDir()
	st := &memStore{}

	p := New(testOptions(out), Deps{Encoder: &fakeEncoder{}, Store: st}, nil)
	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)
	res, err := p.Process(context.Background(), id, "a")
	require.NoError(t, err)
	require.NoError(t, os.Remove(res.MP3Path))

	enc := &fakeEncoder{}
	p = New(testOptions(out), Deps{Encoder: enc, Store: st}, nil)
	res, err = p.Process(context.Background(), id, "a")
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.Equal(t, res.MP3Path, enc.last.Output)
}

func TestPipeline_Previous(t *testing.T) {
	out := t.TempDir()
	kept := filepath.Join(out, "kept.mp3")
	require.NoError(t, os.WriteFile(kept, []byte("mp3"), 0o600))

	st := &memStore{saved: []*store.Conversion{
		{Hash: "h1", Name: "kept", MP3Path: kept, Duration: time.Minute},
		{Hash: "h2", Name: "gone", MP3Path: filepath.Join(out, "gone.mp3")},
	}}
	db := metadata.NewDB(map[string]*metadata.Entry{"h1": {Title: "Kept"}})
	p := New(testOptions(out), Deps{DB: db, Store: st}, nil)

	prev, err := p.Previous(context.Background())
	require.NoError(t, err)
	require.Len(t, prev, 1)
	assert.Equal(t, "h1", prev[0].Hash)
	assert.Equal(t, "Kept", prev[0].Entry.Title)
	assert.Equal(t, time.Minute, prev[0].Duration)
	assert.True(t, prev[0].Reused)
}

func TestPipeline_PreviousWithoutStore(t *testing.T) {
	p := New(testOptions(t.TempDir()), Deps{}, nil)

	prev, err := p.Previous(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prev)
}

func TestPipeline_UnknownFileUsesBaseName(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "My Story?.taf", taftest.Sample())
	p := New(testOptions(t.TempDir()), Deps{}, nil)

	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)
	assert.Nil(t, id.Entry)
	assert.Equal(t, "My Story_", id.Name)
	assert.Equal(t, "My Story?", id.Performer(), "performer falls back to the title")

	res, err := p.Process(context.Background(), id, id.Name)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Analysis.Matched)
	assert.FileExists(t, res.CuePath)
	assert.NoFileExists(t, res.MP3Path)
}

func TestPipeline_ProbeFailureDegrades(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "a.taf", taftest.Sample())
	probe := silence.ProbeFunc(func(context.Context, silence.Request) ([]chapters.Interval, error) {
		return nil, context.DeadlineExceeded
	})
	p := New(testOptions(t.TempDir()), Deps{Encoder: &fakeEncoder{}, Probe: probe}, nil)

	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)

	res, err := p.Process(context.Background(), id, "a")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "silence probe")
	assert.Zero(t, res.Analysis.Matched)
	assert.InDelta(t, 50.0, res.Chapters[1].Start, 1e-9)
}

func TestPipeline_TranscodeFailureFailsFile(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "a.taf", taftest.Sample())
	enc := &fakeEncoder{err: errors.Wrap(nil, errors.CodeTranscodeFailed, "ffmpeg failed")}
	p := New(testOptions(t.TempDir()), Deps{Encoder: enc}, nil)

	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), id, "a")
	assert.True(t, errors.Is(err, errors.ErrTranscodeFailed))
}

func TestPipeline_IdentifyTruncated(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "bad.taf", []byte("OggS too short"))
	p := New(testOptions(t.TempDir()), Deps{}, nil)

	_, err := p.Identify(context.Background(), src)
	assert.True(t, errors.Is(err, errors.ErrTruncatedData))
}

func TestPipeline_UnwritableOutput(t *testing.T) {
	src := taftest.Write(t, t.TempDir(), "a.taf", taftest.Sample())
	p := New(testOptions(filepath.Join(t.TempDir(), "missing", "dir")), Deps{}, nil)

	id, err := p.Identify(context.Background(), src)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), id, "a")
	assert.True(t, errors.Is(err, errors.ErrWriteError))
}
