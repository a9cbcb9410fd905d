package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/tafcue/internal/batch"
	"github.com/listenupapp/tafcue/internal/di/providers"
	"github.com/listenupapp/tafcue/internal/jukebox"
	"github.com/listenupapp/tafcue/internal/pipeline"
	"github.com/listenupapp/tafcue/internal/scanner"
)

var watchCmd = &cobra.Command{
	Use:   "watch [source]",
	Short: "Convert existing files, then convert new files as they appear",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		injector, cfg, log, err := newContainer(args)
		if err != nil {
			return err
		}
		defer shutdown(injector, log)

		runner, err := do.Invoke[*batch.Runner](injector)
		if err != nil {
			return err
		}
		w, err := do.Invoke[*providers.WatcherHandle](injector)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()

		// Results by hash, so that the jukebox lists each story once.
		// Earlier runs are loaded from the conversion records.
		converted := make(map[string]*pipeline.Result)
		var order []string

		previous, err := do.MustInvoke[*pipeline.Pipeline](injector).Previous(ctx)
		if err != nil {
			log.Warn("failed to load earlier conversions", "error", err)
		}
		for _, r := range previous {
			converted[r.Hash] = r
			order = append(order, r.Hash)
		}
		log.Debug("loaded earlier conversions", "count", len(previous))

		convert := func(files []string) {
			summary, err := runner.Run(ctx, files)
			if err != nil {
				log.Error("batch failed", "error", err)
				return
			}
			for _, r := range summary.Results() {
				if _, ok := converted[r.Hash]; !ok {
					order = append(order, r.Hash)
				}
				converted[r.Hash] = r
			}
			if err := summary.Encode(cmd.OutOrStdout(), cfg.Batch.OutputFormat); err != nil {
				log.Error("failed to print summary", "error", err)
			}
			if cfg.Batch.Jukebox {
				results := make([]*pipeline.Result, 0, len(order))
				for _, h := range order {
					results = append(results, converted[h])
				}
				if _, err := jukebox.Write(cfg.Paths.OutputDir, results, log.Logger); err != nil {
					log.Error("failed to write jukebox", "error", err)
				}
			}
		}

		existing, err := scanner.Find(ctx, cfg.Paths.SourceDir, cfg.Paths.Recursive, log.Logger)
		if err != nil {
			return fmt.Errorf("list source files: %w", err)
		}
		if len(existing) > 0 {
			convert(existing)
		}

		for {
			select {
			case <-ctx.Done():
				log.Info("stopping watch")
				return nil
			case path, ok := <-w.Files():
				if !ok {
					return nil
				}
				log.Info("new file", "path", path)
				convert([]string{path})
			}
		}
	},
}
