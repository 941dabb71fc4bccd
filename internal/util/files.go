package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DerivedPathFor returns the sibling artifact path for source: same directory
// and stem, extension replaced by ext. A source that already carries ext
// (case-insensitively) maps to itself.
func DerivedPathFor(source, ext string) string {
	current := filepath.Ext(source)
	if strings.EqualFold(current, ext) {
		return source
	}
	return strings.TrimSuffix(source, current) + ext
}

// HasExtension reports whether path ends in ext, ignoring case.
func HasExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// IsRegularFile reports whether path exists and is a regular file.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SameFile reports whether a and b name the same file on disk.
// Returns false if either cannot be stat'ed.
func SameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// GetFileSize returns the size of path in bytes.
func GetFileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// GetFilename returns the final element of path.
func GetFilename(path string) string {
	return filepath.Base(path)
}

// FormatKB formats a byte count as kilobytes with two decimals.
func FormatKB(bytes uint64) string {
	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}

// FormatBytesReadable returns a human-readable size (B, KiB, MiB, GiB).
func FormatBytesReadable(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMG"[exp])
}

// CalculateSizeReduction returns the percentage saved going from input to output.
// Negative values mean the output grew.
func CalculateSizeReduction(input, output uint64) float64 {
	if input == 0 {
		return 0
	}
	return (float64(input) - float64(output)) / float64(input) * 100
}
