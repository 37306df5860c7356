// Package version holds the build-time version variables for the hygiene
// binary and its Lambda handlers. The zero values ("dev", "none", "unknown")
// are used for local builds; release builds inject the real values via
// -ldflags "-X github.com/pankaj-dahiya-devops/aws-hygiene/internal/version.Version=...".
package version

import "fmt"

// These variables are overridden by ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the formatted version string printed by hygiene version.
func Info() string {
	return fmt.Sprintf(
		"hygiene version %s\ncommit: %s\nbuilt: %s\n",
		Version,
		Commit,
		Date,
	)
}

// Short returns "<version> (<commit>)", used in Lambda startup logs.
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
