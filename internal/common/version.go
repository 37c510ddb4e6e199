package common

// Version information, overridable at build time via ldflags:
//
//	-X github.com/jcalder/brokerd/internal/common.version=1.2.3
var (
	version   = "dev"
	build     = "unknown"
	gitCommit = "unknown"
)

// GetVersion returns the semantic version string.
func GetVersion() string { return version }

// GetBuild returns the build identifier.
func GetBuild() string { return build }

// GetGitCommit returns the git commit the binary was built from.
func GetGitCommit() string { return gitCommit }
