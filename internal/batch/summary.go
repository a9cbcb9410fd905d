package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/pipeline"
)

// Status is the outcome of one file.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// FileSummary is the reported outcome of one file.
type FileSummary struct {
	Source   string      `json:"source" yaml:"source"`
	Name     string      `json:"name,omitempty" yaml:"name,omitempty"`
	Status   Status      `json:"status" yaml:"status"`
	Code     errors.Code `json:"code,omitempty" yaml:"code,omitempty"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Cue      string      `json:"cue,omitempty" yaml:"cue,omitempty"`
	Tracks   int         `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Matched  int         `json:"matched,omitempty" yaml:"matched,omitempty"`

	Result *pipeline.Result `json:"-" yaml:"-"`
}

// Summary is the merged result of a batch run.
type Summary struct {
	RunID     string    `json:"runId" yaml:"runId"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`
	Elapsed   string    `json:"elapsed" yaml:"elapsed"`
	Total     int       `json:"total" yaml:"total"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	// Degraded counts succeeded files that reported warnings.
	Degraded int           `json:"degraded" yaml:"degraded"`
	Failed   int           `json:"failed" yaml:"failed"`
	Files    []FileSummary `json:"files" yaml:"files"`
}

func newSummary(runID string, started time.Time, tasks []*task) *Summary {
	s := &Summary{
		RunID:     runID,
		StartedAt: started.UTC(),
		Elapsed:   time.Since(started).Round(time.Millisecond).String(),
		Total:     len(tasks),
		Files:     make([]FileSummary, 0, len(tasks)),
	}

	for _, t := range tasks {
		f := FileSummary{Source: t.path, Name: t.name}
		switch {
		case t.err != nil:
			f.Status = StatusFailed
			f.Code = errors.CodeOf(t.err)
			f.Error = t.err.Error()
			s.Failed++
		case len(t.result.Warnings) > 0:
			f.Status = StatusDegraded
			s.Degraded++
		default:
			f.Status = StatusOK
		}
		if t.result != nil {
			f.Result = t.result
			f.Warnings = t.result.Warnings
			f.Cue = t.result.CuePath
			f.Tracks = t.result.Analysis.Total
			f.Matched = t.result.Analysis.Matched
			s.Succeeded++
		}
		s.Files = append(s.Files, f)
	}
	return s
}

// Results returns the pipeline results of all converted files in input
// order.
func (s *Summary) Results() []*pipeline.Result {
	out := make([]*pipeline.Result, 0, s.Succeeded)
	for _, f := range s.Files {
		if f.Result != nil {
			out = append(out, f.Result)
		}
	}
	return out
}

// Encode writes the summary as "yaml" or "json".
func (s *Summary) Encode(w io.Writer, format string) error {
	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return errors.Validationf("unknown summary format %q", format)
	}
}
