// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

// Name is the program name reported by --version.
const Name = "lst-generate-products"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Text returns the single-line version string printed by --version.
func Text() string {
	return fmt.Sprintf("%s version %s (commit %s, built %s)", Name, Version, GitSHA, BuildTime)
}
