// Package util provides utility functions for file operations.
package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// tempPrefix marks in-progress writes. The leading dot keeps them out of
// watch mode and out of most directory listings.
const tempPrefix = ".imgtidy"

// TempFile represents a temporary file with automatic cleanup.
type TempFile struct {
	*os.File
	path string
}

// Path returns the path of the temporary file.
func (t *TempFile) Path() string {
	return t.path
}

// Cleanup closes and removes the temporary file.
func (t *TempFile) Cleanup() error {
	var closeErr error
	if t.File != nil {
		closeErr = t.Close()
	}
	if t.path == "" {
		return closeErr
	}
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// IsTempName reports whether name looks like a file created by CreateTempFile.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, tempPrefix+"_")
}

// CreateTempFile creates a temporary file with the given extension in dir.
// The caller is responsible for calling Cleanup() when done.
func CreateTempFile(dir, extension string) (*TempFile, error) {
	randomSuffix, err := generateRandomString(8)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random string: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s", tempPrefix, randomSuffix, extension)
	filePath := filepath.Join(dir, filename)

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}

	return &TempFile{File: f, path: filePath}, nil
}

// WriteFileAtomic writes dst through a temporary sibling file and renames it
// into place, so dst is either the previous content or the complete new one.
// An existing dst is overwritten.
func WriteFileAtomic(dst string, write func(w io.Writer) error) error {
	tmp, err := CreateTempFile(filepath.Dir(dst), filepath.Ext(dst))
	if err != nil {
		return err
	}

	if err := write(tmp); err != nil {
		_ = tmp.Cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Cleanup()
		return fmt.Errorf("failed to sync %s: %w", tmp.Path(), err)
	}
	if err := tmp.Close(); err != nil {
		tmp.File = nil
		_ = tmp.Cleanup()
		return fmt.Errorf("failed to close %s: %w", tmp.Path(), err)
	}
	tmp.File = nil

	if err := os.Rename(tmp.Path(), dst); err != nil {
		_ = tmp.Cleanup()
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// generateRandomString generates a random hex string of the given length.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
