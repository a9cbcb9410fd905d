package store

import (
	"context"
	"errors"
	"time"
)

const conversionPrefix = "conversion:"

// Conversion records a finished conversion of one TAF file.
type Conversion struct {
	Hash        string        `json:"hash"`
	Source      string        `json:"source"`
	Name        string        `json:"name"`
	MP3Path     string        `json:"mp3Path"`
	CuePath     string        `json:"cuePath"`
	CoverPath   string        `json:"coverPath,omitempty"`
	Tracks      int           `json:"tracks"`
	Matched     int           `json:"matched"`
	Duration    time.Duration `json:"duration"`
	ConvertedAt time.Time     `json:"convertedAt"`
}

// SaveConversion stores c under its audio hash.
func (s *Store) SaveConversion(ctx context.Context, c *Conversion) error {
	return s.Set(ctx, conversionPrefix+c.Hash, c, 0)
}

// GetConversion returns the record for hash, or nil when there is none.
func (s *Store) GetConversion(ctx context.Context, hash string) (*Conversion, error) {
	var c Conversion
	if err := s.Get(ctx, conversionPrefix+hash, &c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListConversions returns all records ordered by hash.
func (s *Store) ListConversions(ctx context.Context) ([]*Conversion, error) {
	keys, err := s.Keys(ctx, conversionPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*Conversion, 0, len(keys))
	for _, k := range keys {
		var c Conversion
		if err := s.Get(ctx, k, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, nil
}
