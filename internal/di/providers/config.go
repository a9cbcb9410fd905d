// Package providers contains dependency injection providers for tafcue.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/logger"
)

// ProvideConfig provides the application configuration. Command-line
// flags are read from the injector when a *config.Flags was provided.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags, err := do.Invoke[*config.Flags](i)
	if err != nil {
		flags = &config.Flags{}
	}
	return config.LoadConfig(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		AddSource:   cfg.App.Environment == "development" && cfg.App.LogLevel == "debug",
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"source", cfg.Paths.SourceDir,
		"output", cfg.Paths.OutputDir,
		"cache", cfg.Paths.CachePath,
		"workers", cfg.Batch.Workers,
	)

	return log, nil
}
