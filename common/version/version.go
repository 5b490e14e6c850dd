// Package version exposes build metadata stamped in with -ldflags.
package version

import "fmt"

var (
	Version   = "v0.0.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("%s (%s) built at %s", Version, GitCommit, BuildTime)
}

// UserAgent is sent on every outbound platform call.
func UserAgent() string {
	return "kaiwa/" + Version
}
