//go:build windows

package processing

import (
	"path/filepath"
	"strings"
)

// removalPath returns the extended-length form of path. The \\?\ prefix
// bypasses Win32 name parsing, which otherwise maps NUL and friends to
// devices and makes them impossible to delete.
func removalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(abs, `\\?\`):
		return abs, nil
	case strings.HasPrefix(abs, `\\`):
		return `\\?\UNC\` + abs[2:], nil
	default:
		return `\\?\` + abs, nil
	}
}
