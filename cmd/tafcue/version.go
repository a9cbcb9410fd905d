package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listenupapp/tafcue/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tafcue %s\n", version.GitRelease)
		fmt.Fprintf(out, "  Go:     %s\n", version.GoInfo)
		fmt.Fprintf(out, "  Commit: %s\n", version.Commit())
		if version.GitCommitDate != "" {
			fmt.Fprintf(out, "  Date:   %s\n", version.GitCommitDate)
		}
	},
}
