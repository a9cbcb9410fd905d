package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/tafcue/internal/config"
	"github.com/listenupapp/tafcue/internal/di"
	"github.com/listenupapp/tafcue/internal/logger"
	"github.com/listenupapp/tafcue/internal/version"
)

var flags *config.Flags

var rootCmd = &cobra.Command{
	Use:   "tafcue",
	Short: "Convert Toniebox audio files to MP3 with chapter cue sheets",
	Long: `tafcue converts Toniebox audio files (.taf) into MP3 files plus CUE
sheets. Chapter positions are read from the file header and corrected
against silence detected in the decoded audio.

Settings can be given as flags, environment variables or in a .env file,
in that order of precedence.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags = config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(jukeboxCmd)
	rootCmd.AddCommand(versionCmd)
}

// newContainer builds the container after positional arguments have been
// folded into the flags.
func newContainer(args []string) (*do.RootScope, *config.Config, *logger.Logger, error) {
	if len(args) > 0 {
		flags.Set("SOURCE_DIR", args[0])
	}

	injector := di.NewContainer(flags)
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		_ = injector.Shutdown()
		return nil, nil, nil, err
	}
	return injector, cfg, do.MustInvoke[*logger.Logger](injector), nil
}

func shutdown(injector *do.RootScope, log *logger.Logger) {
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
