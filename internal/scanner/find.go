// Package scanner discovers TAF files on disk and watches a directory for
// new ones.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Ext is the extension of Toniebox audio files.
const Ext = ".taf"

// IsTAF reports whether name has the TAF extension, ignoring case.
func IsTAF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext)
}

func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// Find lists the TAF files under root in sorted order. Hidden files and
// directories are skipped. When root is itself a file it is returned as is.
// Without recursive only the top level of root is listed.
func Find(ctx context.Context, root string, recursive bool, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if IsTAF(d.Name()) && d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	logger.Debug("found taf files", "root", root, "count", len(files))
	return files, nil
}
