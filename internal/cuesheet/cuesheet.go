// Package cuesheet renders reconciled chapters as a CUE sheet.
package cuesheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/listenupapp/tafcue/internal/chapters"
	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/timecode"
	"github.com/listenupapp/tafcue/internal/util"
)

// DefaultComment is written as the REM line.
const DefaultComment = "CREATED BY TAFCUE"

// Track is one TRACK block.
type Track struct {
	Number    int
	Title     string
	Start     float64
	Pregap    float64
	HasPregap bool
}

// Sheet is a complete cue sheet for one audio file.
type Sheet struct {
	Comment   string
	Title     string
	Performer string
	// File is the referenced audio file name, without directory.
	File     string
	FileType string
	Tracks   []Track
}

// New builds a sheet for file from reconciled chapters.
func New(title, performer, file string, chs []chapters.Chapter) *Sheet {
	s := &Sheet{
		Comment:   DefaultComment,
		Title:     title,
		Performer: performer,
		File:      filepath.Base(file),
		FileType:  fileType(file),
		Tracks:    make([]Track, 0, len(chs)),
	}
	for _, ch := range chs {
		s.Tracks = append(s.Tracks, Track{
			Number:    ch.Track,
			Title:     ch.Title,
			Start:     ch.Start,
			Pregap:    ch.Pregap,
			HasPregap: ch.HasPregap,
		})
	}
	return s
}

// Render writes the sheet to w in a single Write call.
func (s *Sheet) Render(w io.Writer) error {
	_, err := w.Write(s.Bytes())
	return err
}

// Bytes returns the rendered sheet.
func (s *Sheet) Bytes() []byte {
	var buf bytes.Buffer

	comment := s.Comment
	if comment == "" {
		comment = DefaultComment
	}
	fmt.Fprintf(&buf, "REM %s\n", comment)
	fmt.Fprintf(&buf, "TITLE %s\n", quote(s.Title))
	fmt.Fprintf(&buf, "PERFORMER %s\n", quote(s.Performer))
	fmt.Fprintf(&buf, "FILE %s %s\n", quote(s.File), s.fileType())

	for _, t := range s.Tracks {
		fmt.Fprintf(&buf, "  TRACK %02d AUDIO\n", t.Number)
		fmt.Fprintf(&buf, "    TITLE %s\n", quote(t.Title))
		if t.HasPregap {
			fmt.Fprintf(&buf, "    INDEX 00 %s\n", timecode.Format(t.Pregap))
		}
		fmt.Fprintf(&buf, "    INDEX 01 %s\n", timecode.Format(t.Start))
	}

	return buf.Bytes()
}

// WriteFile renders the sheet and replaces path with it atomically. Any
// failure is a WriteError and leaves path untouched.
func (s *Sheet) WriteFile(path string) error {
	if err := util.WriteFileAtomic(path, s.Bytes(), 0o644); err != nil {
		return errors.WriteError(err, path)
	}
	return nil
}

func (s *Sheet) fileType() string {
	if s.FileType != "" {
		return s.FileType
	}
	return fileType(s.File)
}

// fileType maps an audio file extension to the FILE type keyword.
func fileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "WAVE"
	case ".aif", ".aiff":
		return "AIFF"
	default:
		return "MP3"
	}
}

// quote wraps v in double quotes. CUE has no escape sequence, so embedded
// double quotes become single quotes and line breaks become spaces.
func quote(v string) string {
	v = strings.NewReplacer(`"`, `'`, "\r\n", " ", "\n", " ", "\r", " ").Replace(v)
	return `"` + v + `"`
}
