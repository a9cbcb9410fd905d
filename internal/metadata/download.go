package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/util"
)

const (
	// maxDBSize limits the database download.
	maxDBSize = 64 * 1024 * 1024

	downloadTimeout  = 60 * time.Second
	downloadAttempts = 3
	downloadDelay    = time.Second
)

// Loader obtains the metadata database from a URL or a local file.
type Loader struct {
	httpClient *http.Client
	logger     *slog.Logger
	attempts   uint
	delay      time.Duration
}

// NewLoader creates a loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		httpClient: &http.Client{Timeout: downloadTimeout},
		logger:     logger,
		attempts:   downloadAttempts,
		delay:      downloadDelay,
	}
}

// Download fetches the database at url, retrying transient failures. When
// cachePath is set the raw JSON is stored there for offline runs.
func (l *Loader) Download(ctx context.Context, url, cachePath string) (*DB, error) {
	var body []byte
	err := retry.Do(
		func() error {
			b, err := l.fetch(ctx, url)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(l.attempts),
		retry.Delay(l.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Warn("metadata download failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDownloadFailed, "download metadata database from %s", url)
	}

	db, err := Parse(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDownloadFailed, "downloaded metadata database is invalid")
	}

	if cachePath != "" {
		if err := util.WriteFileAtomic(cachePath, body, 0o644); err != nil {
			l.logger.Warn("failed to save metadata database", "path", cachePath, "error", err)
		}
	}

	l.logger.Info("metadata database downloaded", "url", url, "entries", db.Len())
	return db, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tafcue/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	default:
		return nil, retry.Unrecoverable(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDBSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// Load returns the database for a run. With download set it tries url first
// and falls back to the file at path. A missing or broken database is not
// fatal: an empty database is returned and lookups simply miss.
func (l *Loader) Load(ctx context.Context, path, url string, download bool) *DB {
	if download && url != "" {
		db, err := l.Download(ctx, url, path)
		if err == nil {
			return db
		}
		l.logger.Warn("metadata download failed, using local file", "error", err)
	}

	if path == "" {
		return &DB{}
	}

	db, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			l.logger.Warn("metadata database not found, names fall back to file names", "path", path)
		} else {
			l.logger.Warn("metadata database unreadable, names fall back to file names", "path", path, "error", err)
		}
		return &DB{}
	}

	l.logger.Info("metadata database loaded", "path", path, "entries", db.Len())
	return db
}
