// Package envinfo reads host environment details for platform reporting.
package envinfo

import (
	"os"
	"strings"
)

// localeVars are checked in POSIX precedence order.
var localeVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Locale returns the host locale as a BCP 47-style tag ("en-US"), or the
// empty string if none is configured. Encoding and modifier suffixes
// ("en_US.UTF-8@euro") are stripped.
func Locale() string {
	for _, key := range localeVars {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return normalizeLocale(v)
		}
	}
	return ""
}

// normalizeLocale converts a POSIX locale string to a language tag.
func normalizeLocale(locale string) string {
	// Strip encoding and modifier: "en_US.UTF-8@euro" -> "en_US"
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}

	if locale == "C" || locale == "POSIX" || locale == "" {
		return ""
	}

	return strings.ReplaceAll(locale, "_", "-")
}

// Hostname returns the host name, or the empty string if unavailable.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
