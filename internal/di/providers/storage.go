package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/logger"
	"github.com/listenupapp/tafcue/internal/media/covers"
	"github.com/listenupapp/tafcue/internal/media/images"
	"github.com/listenupapp/tafcue/internal/store"
)

// StoreHandle wraps the store with shutdown capability. Store is nil when
// the cache could not be opened.
type StoreHandle struct {
	Store *store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Store.Close()
}

// ProvideStore provides the badger result cache. A cache that cannot be
// opened, for example because another run holds its lock, is skipped.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.Paths.CachePath, log.Logger)
	if err != nil {
		log.Warn("result cache unavailable, running without it",
			"path", cfg.Paths.CachePath, "error", err)
		return &StoreHandle{}, nil
	}

	log.Debug("result cache opened", "path", cfg.Paths.CachePath)
	return &StoreHandle{Store: db}, nil
}

// ProvideCoverStorage provides cover storage in the output directory.
func ProvideCoverStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return images.NewStorage(cfg.Paths.OutputDir)
}

// ProvideCoverDownloader provides the cover downloader.
func ProvideCoverDownloader(i do.Injector) (*covers.Downloader, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)
	return covers.NewDownloader(storage, log.Logger), nil
}

// ProvideCoverExtractor provides the embedded cover extractor.
func ProvideCoverExtractor(i do.Injector) (*images.Extractor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)
	return images.NewExtractor(storage, log.Logger), nil
}
