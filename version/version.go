// Package version exposes the build-time-embedded application version.
package version

import "fmt"

// Build-time variables, overridden via -ldflags:
//
//	go build -ldflags "-X github.com/tiptv/bridge/version.Version=1.2.3 \
//	  -X github.com/tiptv/bridge/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/tiptv/bridge/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the application.
	Version = "0.1.0"

	// Commit is the VCS revision the binary was built from.
	Commit = ""

	// BuildDate is the UTC build timestamp.
	BuildDate = ""
)

// Info describes the build.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
}

// Get returns the semantic version string.
func Get() string {
	return Version
}

// Build returns the full build information.
func Build() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	}
}

// String returns a human-readable build description.
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s = fmt.Sprintf("%s (%s)", s, i.Commit)
	}
	return s
}
