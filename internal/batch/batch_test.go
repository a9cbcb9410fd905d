package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/pipeline"
	"github.com/listenupapp/tafcue/internal/taf/taftest"
)

func newPipeline(out string) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		OutputDir:  out,
		SampleRate: 48000,
		Depth:      100,
		Window:     30 * time.Second,
		PregapMin:  500 * time.Millisecond,
	}, pipeline.Deps{}, nil)
}

func TestRun_CorruptedFileIsIsolated(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")

	var paths []string
	for _, name := range []string{"a.taf", "b.taf", "c.taf", "d.taf"} {
		paths = append(paths, taftest.Write(t, src, name, taftest.Sample()))
	}
	paths = append(paths, taftest.Write(t, src, "broken.taf", []byte("OggS garbage")))

	summary, err := NewRunner(newPipeline(out), 3, out, nil).Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, strings.HasPrefix(summary.RunID, "run-"))

	broken := summary.Files[4]
	assert.Equal(t, StatusFailed, broken.Status)
	assert.Equal(t, errors.CodeTruncatedData, broken.Code)

	cues, err := filepath.Glob(filepath.Join(out, "*.cue"))
	require.NoError(t, err)
	assert.Len(t, cues, 4)
	assert.Len(t, summary.Results(), 4)
}

func TestRun_DuplicateNamesInInputOrder(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	// Identical content under different directories yields the same name.
	var paths []string
	for _, dir := range []string{"x", "y", "z"} {
		require.NoError(t, os.MkdirAll(filepath.Join(src, dir), 0o755))
		paths = append(paths, taftest.Write(t, filepath.Join(src, dir), "Story.taf", taftest.Sample()))
	}

	summary, err := NewRunner(newPipeline(out), 3, out, nil).Run(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, summary.Files, 3)
	assert.Equal(t, "Story", summary.Files[0].Name)
	assert.Equal(t, "Story (2)", summary.Files[1].Name)
	assert.Equal(t, "Story (3)", summary.Files[2].Name)
	assert.FileExists(t, filepath.Join(out, "Story (3).cue"))
}

// panicky panics while processing one file.
type panicky struct {
	*pipeline.Pipeline
	calls atomic.Int32
}

func (p *panicky) Process(ctx context.Context, id *pipeline.Identity, name string) (*pipeline.Result, error) {
	p.calls.Add(1)
	if name == "b" {
		panic("boom")
	}
	return p.Pipeline.Process(ctx, id, name)
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	paths := []string{
		taftest.Write(t, src, "a.taf", taftest.Sample()),
		taftest.Write(t, src, "b.taf", taftest.Sample()),
	}

	proc := &panicky{Pipeline: newPipeline(out)}
	summary, err := NewRunner(proc, 1, out, nil).Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, int32(2), proc.calls.Load())
	assert.Equal(t, StatusOK, summary.Files[0].Status)
	assert.Equal(t, StatusFailed, summary.Files[1].Status)
	assert.Equal(t, errors.CodeInternal, summary.Files[1].Code)
	assert.Contains(t, summary.Files[1].Error, "boom")
}

func TestRun_CancelledContext(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	paths := []string{taftest.Write(t, src, "a.taf", taftest.Sample())}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewRunner(newPipeline(out), 1, out, nil).Run(ctx, paths)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Files[0].Error, "not started")
}

func TestSummary_Encode(t *testing.T) {
	s := &Summary{
		RunID: "run-abc",
		Total: 1,
		Files: []FileSummary{{Source: "a.taf", Status: StatusFailed, Code: errors.CodeWriteError, Error: "write a.cue"}},
	}

	var y bytes.Buffer
	require.NoError(t, s.Encode(&y, "yaml"))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &fromYAML))
	assert.Equal(t, "run-abc", fromYAML["runId"])
	assert.Contains(t, y.String(), "code: WRITE_ERROR")

	var j bytes.Buffer
	require.NoError(t, s.Encode(&j, "json"))
	var fromJSON Summary
	require.NoError(t, json.Unmarshal(j.Bytes(), &fromJSON))
	assert.Equal(t, s.Files[0].Code, fromJSON.Files[0].Code)

	assert.Error(t, s.Encode(&j, "xml"))
}
