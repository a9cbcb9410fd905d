// Package jukebox exports converted files as a jukebox.json playlist index
// for web players.
package jukebox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/listenupapp/tafcue/internal/color"
	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/id"
	"github.com/listenupapp/tafcue/internal/media/images"
	"github.com/listenupapp/tafcue/internal/metadata"
	"github.com/listenupapp/tafcue/internal/normalize"
	"github.com/listenupapp/tafcue/internal/pipeline"
	"github.com/listenupapp/tafcue/internal/util"
)

// FileName is the export written into the output directory.
const FileName = "jukebox.json"

const defaultLanguage = "Deutsch"

// Meta carries the filterable metadata of an entry.
type Meta struct {
	Series            string `json:"series"`
	Episode           string `json:"episode"`
	Description       string `json:"description"`
	AgeRecommendation int    `json:"age_recommendation"`
	Genre             string `json:"genre"`
	Language          string `json:"language"`
	Runtime           int    `json:"runtime"`
}

// Entry is one playable item.
type Entry struct {
	TagID             string   `json:"tagId"`
	Name              string   `json:"name"`
	PlaylistFileNames []string `json:"playlistFileNames"`
	ImageFileName     *string  `json:"imageFileName"`
	ImageBlurHash     string   `json:"imageBlurHash,omitempty"`
	// Color is a placeholder background for players without artwork.
	Color     string   `json:"color"`
	Meta      Meta     `json:"meta"`
	Tags      []string `json:"tags"`
	FilterAge int      `json:"filter_age"`
}

// NewEntry builds the export entry for a converted file. A cover that
// cannot be decoded is exported without a blurhash.
func NewEntry(res *pipeline.Result, logger *slog.Logger) Entry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := res.Entry
	if e == nil {
		e = &metadata.Entry{}
	}

	name := e.Title
	if name == "" {
		name = res.Name
	}
	genre := e.Genre
	if genre == "" {
		genre = metadata.DefaultGenre
	}
	lang := normalize.Language(e.Language)
	if lang == "" {
		lang = defaultLanguage
	}

	entry := Entry{
		TagID:             id.FromHash("auto", res.Hash),
		Name:              name,
		PlaylistFileNames: []string{filepath.Base(res.MP3Path)},
		Meta: Meta{
			Series:            e.Series,
			Episode:           e.Episode,
			Description:       e.Description,
			AgeRecommendation: e.Age,
			Genre:             genre,
			Language:          lang,
			Runtime:           e.Runtime,
		},
		Tags:      metadata.DetectTags(name, e.Description, genre),
		FilterAge: e.Age,
	}
	entry.Color = color.ForKey(entry.TagID)
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	if res.CoverPath != "" && util.FileExists(res.CoverPath) {
		img := filepath.Base(res.CoverPath)
		entry.ImageFileName = &img

		hash, err := images.ComputeBlurHash(res.CoverPath)
		if err != nil {
			logger.Warn("failed to compute blurhash", "cover", res.CoverPath, "error", err)
		} else {
			entry.ImageBlurHash = hash
		}
	}

	return entry
}

// Build returns the entries for results in order.
func Build(results []*pipeline.Result, logger *slog.Logger) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, NewEntry(r, logger))
	}
	return entries
}

// Marshal encodes entries with four-space indentation and unescaped HTML.
func Marshal(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode jukebox: %w", err)
	}
	return buf.Bytes(), nil
}

// Write exports results to dir/jukebox.json and returns its path.
func Write(dir string, results []*pipeline.Result, logger *slog.Logger) (string, error) {
	data, err := Marshal(Build(results, logger))
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName)
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", errors.WriteError(err, path)
	}
	return path, nil
}
