// Package device provides a minimal, stateless reader for the
// filesystem-provided tunnel interface name used by via-device routes.
package device

import (
	"os"
	"strings"
)

// Read returns the interface name written in path, trimmed of
// surrounding whitespace. It returns ("", false) if the file is missing
// or empty.
//
// No caching or inotify watching: every via-device route decision
// re-reads the file directly, since query rates are low enough that the
// extra syscall is not worth the complexity of a cache that could go
// stale.
func Read(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", false
	}
	return name, true
}
