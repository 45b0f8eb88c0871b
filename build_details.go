package opcheck

import (
	"fmt"
	"runtime"
)

var (
	// version is set via ldflags during build by GoReleaser
	// For development builds, this will show "dev"
	version = "dev"

	// commit and buildTime are set the same way
	commit    = "unknown"
	buildTime = "unknown"
)

// Version returns the compiled version or 'dev' if run from source
func Version() string {
	return version
}

// Commit returns the VCS commit the binary was built from
func Commit() string {
	return commit
}

// BuildTime returns the build timestamp
func BuildTime() string {
	return buildTime
}

// GoVersion returns the Go toolchain version the binary runs on
func GoVersion() string {
	return runtime.Version()
}

// UserAgent returns the User-Agent string to use
func UserAgent() string {
	return fmt.Sprintf("opcheck/%s", version)
}

// BuildInfo returns a multi-line summary suitable for a version command
func BuildInfo() string {
	return fmt.Sprintf("Version:    %s\nCommit:     %s\nBuild Time: %s\nGo Version: %s",
		version, commit, buildTime, GoVersion())
}
