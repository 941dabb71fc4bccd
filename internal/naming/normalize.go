// Package naming rewrites file and directory names to plain ASCII.
package naming

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/five82/imgtidy/internal/config"
)

// ErrCollision is returned when a rename target already exists.
var ErrCollision = errors.New("rename target already exists")

const (
	// FilePlaceholder replaces a file stem that normalizes to nothing.
	FilePlaceholder = "file"
	// DirPlaceholder replaces a directory name that normalizes to nothing.
	DirPlaceholder = "folder"
)

// NeedsRename reports whether name contains a non-ASCII rune or a space.
func NeedsRename(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf || name[i] == ' ' {
			return true
		}
	}
	return false
}

// Normalizer maps names to ASCII using a special-case table and
// diacritic folding.
type Normalizer struct {
	special []config.SpecialName
}

// NewNormalizer returns a Normalizer with the given special-case table.
// Entries are checked in order; the first fragment found in a file name wins.
func NewNormalizer(special []config.SpecialName) *Normalizer {
	n := &Normalizer{}
	for _, s := range special {
		if s.Fragment != "" && s.Name != "" {
			n.special = append(n.special, s)
		}
	}
	return n
}

// Normalize returns the ASCII form of name. Names that do not need renaming
// are returned unchanged, so Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(name string, isDir bool) string {
	if !NeedsRename(name) {
		return name
	}

	if isDir {
		return orPlaceholder(clean(name), DirPlaceholder)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfile such as ".背景": treat the whole name as the stem
		stem, ext = name, ""
	}
	ext = cleanExtension(ext)

	for _, s := range n.special {
		if strings.Contains(stem, s.Fragment) {
			return orPlaceholder(clean(s.Name), FilePlaceholder) + ext
		}
	}

	return orPlaceholder(clean(stem), FilePlaceholder) + ext
}

// ToASCII folds diacritics to their base letters and drops any remaining
// non-ASCII runes.
func ToASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(ToASCII(s)), " ", "-")
}

func cleanExtension(ext string) string {
	if ext == "" {
		return ""
	}
	cleaned := clean(strings.TrimPrefix(ext, "."))
	if cleaned == "" {
		return ""
	}
	return "." + cleaned
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
