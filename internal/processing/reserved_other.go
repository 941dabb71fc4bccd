//go:build !windows

package processing

import "path/filepath"

// removalPath returns the absolute path; reserved device names are ordinary
// file names outside Windows.
func removalPath(path string) (string, error) {
	return filepath.Abs(path)
}
