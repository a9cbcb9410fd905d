// Package di provides dependency injection configuration for tafcue.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// flags may be nil.
func NewContainer(flags *config.Flags) *do.RootScope {
	injector := do.New()

	if flags != nil {
		do.ProvideValue(injector, flags)
	}

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// Metadata and artwork
	do.Provide(injector, providers.ProvideMetadataDB)
	do.Provide(injector, providers.ProvideScraper)
	do.Provide(injector, providers.ProvideCoverStorage)
	do.Provide(injector, providers.ProvideCoverDownloader)
	do.Provide(injector, providers.ProvideCoverExtractor)

	// External tools
	do.Provide(injector, providers.ProvideEncoder)
	do.Provide(injector, providers.ProvideProbe)

	// Conversion
	do.Provide(injector, providers.ProvidePipeline)
	do.Provide(injector, providers.ProvideBatchRunner)
	do.Provide(injector, providers.ProvideWatcher)

	return injector
}
