// Package platform reports the host operating system to the shell.
package platform

import (
	"runtime"

	"github.com/tiptv/bridge/internal/envinfo"
)

// Supported platform identifiers, as surfaced to the host shell.
const (
	Windows = "windows"
	MacOS   = "macos"
	Linux   = "linux"
	IOS     = "ios"
	Android = "android"
)

// Info is a snapshot of host platform details.
type Info struct {
	// OS is the normalized platform identifier.
	OS string

	// Arch is the processor architecture (GOARCH).
	Arch string

	// NumCPU is the number of logical CPUs.
	NumCPU int

	// Hostname is the host name, if available.
	Hostname string

	// Locale is the configured locale as a language tag ("en-US"),
	// if one is set.
	Locale string
}

// Identifier returns the normalized host platform identifier.
// Values are drawn from the fixed enumeration {windows, macos, linux,
// ios, android}; an unrecognized GOOS passes through unchanged.
func Identifier() string {
	return normalize(runtime.GOOS)
}

// normalize maps a GOOS value to the shell-facing identifier.
func normalize(goos string) string {
	switch goos {
	case "darwin":
		return MacOS
	case "windows", "linux", "ios", "android":
		return goos
	default:
		return goos
	}
}

// Supported reports whether id is one of the supported platform identifiers.
func Supported(id string) bool {
	switch id {
	case Windows, MacOS, Linux, IOS, Android:
		return true
	default:
		return false
	}
}

// Current returns a snapshot of the host platform.
func Current() Info {
	return Info{
		OS:       Identifier(),
		Arch:     runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
		Hostname: envinfo.Hostname(),
		Locale:   envinfo.Locale(),
	}
}
