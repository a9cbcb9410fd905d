// Package metadata maps TAF audio hashes to titles, track names and
// artwork from the community tonies database.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/normalize"
)

// Entry is the metadata of one audio content.
type Entry struct {
	Title       string   `json:"title"`
	Series      string   `json:"series,omitempty"`
	Episode     string   `json:"episode,omitempty"`
	Tracks      []string `json:"tracks,omitempty"`
	Pic         string   `json:"pic,omitempty"`
	Web         string   `json:"web,omitempty"`
	Description string   `json:"description,omitempty"`
	Age         int      `json:"age,omitempty"`
	// Runtime is in minutes.
	Runtime  int    `json:"runtime,omitempty"`
	Language string `json:"language,omitempty"`
	Genre    string `json:"genre,omitempty"`
}

// Performer returns the series, falling back to the title.
func (e *Entry) Performer() string {
	if e.Series != "" {
		return e.Series
	}
	return e.Title
}

// DB is an in-memory hash index. The zero value is an empty database.
type DB struct {
	entries map[string]*Entry
}

// NewDB returns a database holding entries keyed by hash.
func NewDB(entries map[string]*Entry) *DB {
	db := &DB{entries: make(map[string]*Entry, len(entries))}
	for h, e := range entries {
		db.entries[strings.ToLower(h)] = e
	}
	return db
}

// Lookup returns the entry for hash. Hashes compare case-insensitively.
func (db *DB) Lookup(hash string) (*Entry, bool) {
	if db == nil {
		return nil, false
	}
	e, ok := db.entries[strings.ToLower(hash)]
	return e, ok
}

// Len returns the number of indexed hashes.
func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.entries)
}

// LoadFile reads a database file. A missing file is a NotFound error.
func LoadFile(path string) (*DB, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- database path is configured by the user
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("metadata database %s", path).WithCause(err)
		}
		return nil, fmt.Errorf("read metadata database: %w", err)
	}
	return Parse(data)
}

// v1Entry is the flat tonies.json layout.
type v1Entry struct {
	Hash     []string `json:"hash"`
	Title    string   `json:"title"`
	Series   string   `json:"series"`
	Episodes string   `json:"episodes"`
	Tracks   []string `json:"tracks"`
	Pic      string   `json:"pic"`
	Language string   `json:"language"`
	Category string   `json:"category"`
}

// v2Article is the toniesV2.json layout: articles holding data records.
type v2Article struct {
	Article string   `json:"article"`
	Data    []v2Data `json:"data"`
}

type v2Data struct {
	Series      string   `json:"series"`
	Episode     string   `json:"episode"`
	TrackDesc   []string `json:"track-desc"`
	Image       string   `json:"image"`
	Web         string   `json:"web"`
	Description string   `json:"description"`
	Age         flexInt  `json:"age"`
	Runtime     flexInt  `json:"runtime"`
	Language    string   `json:"language"`
	Category    string   `json:"category"`
	IDs         []struct {
		Hash string `json:"hash"`
	} `json:"ids"`
}

// flexInt accepts numbers, numeric strings and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil //nolint:nilerr // unparseable values count as unknown
	}
	*f = flexInt(v)
	return nil
}

// Parse decodes either database layout. Records carrying a "data" array are
// read as V2, others as V1.
func Parse(data []byte) (*DB, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Validationf("metadata database is not a JSON array: %v", err)
	}

	db := &DB{entries: make(map[string]*Entry)}
	for i, r := range raw {
		var probe struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(r, &probe); err != nil {
			return nil, errors.Validationf("metadata record %d: %v", i, err)
		}

		if len(probe.Data) > 0 && probe.Data[0] == '[' {
			var a v2Article
			if err := json.Unmarshal(r, &a); err != nil {
				return nil, errors.Validationf("metadata record %d: %v", i, err)
			}
			db.addV2(a)
			continue
		}

		var e v1Entry
		if err := json.Unmarshal(r, &e); err != nil {
			return nil, errors.Validationf("metadata record %d: %v", i, err)
		}
		db.addV1(e)
	}
	return db, nil
}

func (db *DB) addV1(e v1Entry) {
	entry := &Entry{
		Title:    normalize.Text(e.Title),
		Series:   normalize.Text(e.Series),
		Episode:  normalize.Text(e.Episodes),
		Tracks:   cleanTracks(e.Tracks),
		Pic:      e.Pic,
		Language: normalize.Language(e.Language),
		Genre:    e.Category,
	}
	if entry.Title == "" {
		entry.Title = joinTitle(entry.Series, entry.Episode)
	}
	for _, h := range e.Hash {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			db.entries[h] = entry
		}
	}
}

func (db *DB) addV2(a v2Article) {
	for _, d := range a.Data {
		series := normalize.Text(d.Series)
		episode := normalize.Text(d.Episode)
		entry := &Entry{
			Title:       joinTitle(series, episode),
			Series:      series,
			Episode:     episode,
			Tracks:      cleanTracks(d.TrackDesc),
			Pic:         d.Image,
			Web:         d.Web,
			Description: normalize.Text(d.Description),
			Age:         int(d.Age),
			Runtime:     int(d.Runtime),
			Language:    normalize.Language(d.Language),
			Genre:       d.Category,
		}
		for _, id := range d.IDs {
			if h := strings.ToLower(strings.TrimSpace(id.Hash)); h != "" {
				db.entries[h] = entry
			}
		}
	}
}

// joinTitle builds "Series - Episode", or whichever part is present.
func joinTitle(series, episode string) string {
	switch {
	case series != "" && episode != "":
		return series + " - " + episode
	case series != "":
		return series
	default:
		return episode
	}
}

func cleanTracks(tracks []string) []string {
	if len(tracks) == 0 {
		return nil
	}
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = strings.TrimSpace(normalize.Text(t))
	}
	return out
}
