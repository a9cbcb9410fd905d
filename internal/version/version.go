// Package version reports build information set via -ldflags.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/listenupapp/tafcue/internal/version.GitRelease=v1.2.3".
var (
	GitRelease    = "dev"
	GitCommit     = ""
	GitCommitDate = ""
)

// GoInfo is the toolchain and platform of the running binary.
var GoInfo = runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH

// Commit returns GitCommit, falling back to the VCS revision recorded by
// the Go toolchain.
func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
