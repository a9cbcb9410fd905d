package main

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/tafcue/internal/batch"
	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/jukebox"
	"github.com/listenupapp/tafcue/internal/logger"
	"github.com/listenupapp/tafcue/internal/scanner"
)

var convertCmd = &cobra.Command{
	Use:   "convert [source]",
	Short: "Convert all .taf files in a directory",
	Long: `Convert every .taf file in the source directory (or the single file
given) and print a summary. The exit status is 1 when any file failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

var jukeboxCmd = &cobra.Command{
	Use:   "jukebox [source]",
	Short: "Convert and write jukebox.json for web players",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags.Set("JUKEBOX", "true")
		return runConvert(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func runConvert(ctx context.Context, out io.Writer, args []string) error {
	injector, cfg, log, err := newContainer(args)
	if err != nil {
		return err
	}
	defer shutdown(injector, log)

	files, err := scanner.Find(ctx, cfg.Paths.SourceDir, cfg.Paths.Recursive, log.Logger)
	if err != nil {
		return fmt.Errorf("list source files: %w", err)
	}
	if len(files) == 0 {
		log.Warn("no .taf files found", "path", cfg.Paths.SourceDir)
		return nil
	}

	runner, err := do.Invoke[*batch.Runner](injector)
	if err != nil {
		return err
	}

	summary, err := runner.Run(ctx, files)
	if err != nil {
		return err
	}

	return report(out, cfg, log, summary)
}

// report exports the jukebox when enabled and prints the summary.
func report(out io.Writer, cfg *config.Config, log *logger.Logger, summary *batch.Summary) error {
	if cfg.Batch.Jukebox {
		path, err := jukebox.Write(cfg.Paths.OutputDir, summary.Results(), log.Logger)
		if err != nil {
			return err
		}
		log.Info("jukebox written", "path", path, "entries", summary.Succeeded)
	}

	if err := summary.Encode(out, cfg.Batch.OutputFormat); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}
