package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tafcue/internal/batch"
	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/logger"
	"github.com/listenupapp/tafcue/internal/media/covers"
	"github.com/listenupapp/tafcue/internal/media/images"
	"github.com/listenupapp/tafcue/internal/metadata"
	"github.com/listenupapp/tafcue/internal/pipeline"
	"github.com/listenupapp/tafcue/internal/scanner"
	"github.com/listenupapp/tafcue/internal/silence"
	"github.com/listenupapp/tafcue/internal/transcode"
)

// EncoderHandle holds the MP3 encoder, nil when transcoding is disabled.
type EncoderHandle struct {
	Encoder transcode.Encoder
}

// ProvideEncoder provides the ffmpeg encoder.
func ProvideEncoder(i do.Injector) (*EncoderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Transcode.Enabled {
		log.Info("transcoding disabled, existing mp3 files are used as is")
		return &EncoderHandle{}, nil
	}

	enc, err := transcode.NewFFmpegEncoder(cfg.Transcode.FFmpegPath, log.Logger)
	if err != nil {
		return nil, err
	}
	return &EncoderHandle{Encoder: enc}, nil
}

// ProbeHandle holds the silence probe, nil when silence detection is off
// or ffmpeg is unavailable.
type ProbeHandle struct {
	Probe silence.Probe
}

// ProvideProbe provides the cached ffmpeg silence probe.
func ProvideProbe(i do.Injector) (*ProbeHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Silence.Enabled {
		return &ProbeHandle{}, nil
	}

	probe, err := silence.NewFFmpegProbe(cfg.Transcode.FFmpegPath, cfg.Silence.Timeout, log.Logger)
	if err != nil {
		// Degrade to theoretical times rather than refusing to run.
		log.Warn("silence detection unavailable", "error", err)
		return &ProbeHandle{}, nil
	}

	st := do.MustInvoke[*StoreHandle](i)
	if st.Store == nil {
		return &ProbeHandle{Probe: probe}, nil
	}
	return &ProbeHandle{Probe: silence.NewCached(probe, st.Store, log.Logger)}, nil
}

// ProvidePipeline provides the per-file pipeline.
func ProvidePipeline(i do.Injector) (*pipeline.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	deps := pipeline.Deps{
		DB:        do.MustInvoke[*metadata.DB](i),
		Encoder:   do.MustInvoke[*EncoderHandle](i).Encoder,
		Probe:     do.MustInvoke[*ProbeHandle](i).Probe,
		Extractor: do.MustInvoke[*images.Extractor](i),
	}
	// A nil *store.Store must not reach the interface.
	if st := do.MustInvoke[*StoreHandle](i).Store; st != nil {
		deps.Store = st
	}
	if cfg.Metadata.CoversEnabled {
		deps.Covers = do.MustInvoke[*covers.Downloader](i)
	}
	if s := do.MustInvoke[*ScraperHandle](i).Scraper; s != nil {
		deps.Scraper = s
	}

	return pipeline.New(PipelineOptions(cfg), deps, log.Logger), nil
}

// PipelineOptions maps configuration to pipeline options.
func PipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		OutputDir:    cfg.Paths.OutputDir,
		HeaderSize:   cfg.Container.HeaderSize,
		ChapterTag:   cfg.Container.ChapterTag,
		SampleRate:   cfg.Container.SampleRate,
		Depth:        cfg.Container.MaxBackwardPages,
		Window:       cfg.Reconcile.SyncWindow,
		PregapMin:    cfg.Reconcile.PregapMin,
		NoiseFloorDB: cfg.Silence.NoiseFloorDB,
		MinSilence:   cfg.Silence.MinSilence,
		Quality:      cfg.Transcode.Quality,
	}
}

// ProvideBatchRunner provides the batch runner.
func ProvideBatchRunner(i do.Injector) (*batch.Runner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	p := do.MustInvoke[*pipeline.Pipeline](i)

	return batch.NewRunner(p, cfg.Batch.Workers, cfg.Paths.OutputDir, log.Logger), nil
}

// WatcherHandle wraps the directory watcher with shutdown capability.
type WatcherHandle struct {
	*scanner.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *WatcherHandle) Shutdown() error {
	return h.Stop()
}

// ProvideWatcher provides a watcher on the source directory.
func ProvideWatcher(i do.Injector) (*WatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	w, err := scanner.NewWatcher(scanner.DefaultSettleDelay, cfg.Paths.Recursive, log.Logger)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(cfg.Paths.SourceDir); err != nil {
		_ = w.Stop()
		return nil, err
	}

	log.Info("watching for new files", "path", cfg.Paths.SourceDir)
	return &WatcherHandle{Watcher: w}, nil
}
