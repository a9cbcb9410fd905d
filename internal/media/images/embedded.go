package images

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simonhull/audiometa"
)

// Extractor recovers cover art embedded in converted audio files.
type Extractor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewExtractor creates an Extractor that saves into storage.
func NewExtractor(storage *Storage, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{storage: storage, logger: logger}
}

// Extract saves the first picture embedded in audioPath as the cover for
// name. It returns false (and no error) when the file has no picture.
func (e *Extractor) Extract(ctx context.Context, audioPath, name string) (bool, error) {
	file, err := audiometa.OpenContext(ctx, audioPath)
	if err != nil {
		return false, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close() //nolint:errcheck // Defer close, nothing we can do about errors here

	artworks, err := file.ExtractArtwork()
	if err != nil {
		return false, fmt.Errorf("extract artwork: %w", err)
	}
	if len(artworks) == 0 || len(artworks[0].Data) == 0 {
		e.logger.Debug("no embedded cover found", "path", audioPath)
		return false, nil
	}

	if err := e.storage.Save(name, artworks[0].Data); err != nil {
		return false, fmt.Errorf("save cover: %w", err)
	}

	e.logger.Debug("extracted embedded cover", "path", audioPath, "size", len(artworks[0].Data))
	return true, nil
}
