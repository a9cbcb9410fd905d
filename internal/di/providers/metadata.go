package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/logger"
	"github.com/listenupapp/tafcue/internal/metadata"
)

// ProvideMetadataDB loads the hash database. A missing or broken database
// yields an empty one.
func ProvideMetadataDB(i do.Injector) (*metadata.DB, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	loader := metadata.NewLoader(log.Logger)
	db := loader.Load(context.Background(), cfg.Metadata.ToniesJSON, cfg.Metadata.DBURL, cfg.Metadata.Download)

	log.Info("metadata database loaded", "entries", db.Len())
	return db, nil
}

// ScraperHandle wraps the scraper so its rate limiter is stopped on
// shutdown. Scraper is nil when scraping is disabled.
type ScraperHandle struct {
	Scraper *metadata.Scraper
}

// Shutdown implements do.Shutdownable.
func (h *ScraperHandle) Shutdown() error {
	if h.Scraper != nil {
		h.Scraper.Close()
	}
	return nil
}

// ProvideScraper provides the product page scraper.
func ProvideScraper(i do.Injector) (*ScraperHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Metadata.ScrapeEnabled {
		return &ScraperHandle{}, nil
	}
	return &ScraperHandle{Scraper: metadata.NewScraper(log.Logger)}, nil
}
