package version

import "fmt"

// Name is the service identity used in startup logs.
const Name = "atalaya"

// Version is the semantic version, overridable at build time via -ldflags.
var Version = "0.3.0"

// Commit is the VCS revision, overridable at build time via -ldflags.
var Commit = "dev"

// Full returns the combined version string.
func Full() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
