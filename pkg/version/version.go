// Package version reports build information set through -ldflags, e.g.
//
//	go build -ldflags "-X github.com/astrolabe-oss/corelib/pkg/version.Version=v1.4.0"
package version

import (
	"fmt"
	"runtime"
)

// Build information. Overridden at link time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("corelib %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildTime, runtime.Version())
}

// Info returns the build information as a flat map for structured output.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    GitCommit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
