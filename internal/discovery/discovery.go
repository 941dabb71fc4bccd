// Package discovery provides file discovery for image processing.
package discovery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrRootUnreadable is returned when a root directory cannot be enumerated at all.
var ErrRootUnreadable = errors.New("root directory cannot be read")

// WarnFunc receives entries that were skipped because they could not be read.
type WarnFunc func(path string, err error)

// Walk finds every regular file beneath the given roots.
// Returns files sorted lexicographically within each root, roots in the given order.
func Walk(roots []string, warn WarnFunc) ([]string, error) {
	var files []string
	for _, root := range roots {
		found, err := WalkRoot(root, warn)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// WalkRoot finds every regular file beneath root, descending into all
// subdirectories. Subdirectories and entries that cannot be read are passed to
// warn and skipped. Symlinks are not followed.
func WalkRoot(root string, warn WarnFunc) ([]string, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
			}
			if warn != nil {
				warn(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// CheckRoot verifies that root exists, is a directory, and can be listed.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, root)
	}
	f, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, root, err)
	}
	return nil
}
