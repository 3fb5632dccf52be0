// Package pathnorm maps free-text display strings from the catalog
// (publisher names, product names, filenames) to filesystem-safe path
// segments and resolves full destination paths under the library root.
//
// Two interchangeable policies exist. The default policy targets
// readability: HTML entities are decoded and characters that Windows
// forbids in filenames are replaced with a " - " separator. The
// compatibility policy mimics the catalog's own desktop client, which
// replaces every non-alphanumeric character with an underscore. Windows is
// the lowest common denominator, so its restrictions apply on all
// platforms.
package pathnorm

import (
	"html"
	"path/filepath"
	"regexp"
	"strings"
)

const separator = " - "

// DefaultPublisher is the placeholder segment used when the catalog does
// not report a publisher for a product.
const DefaultPublisher = "Others"

var (
	reservedChars      = regexp.MustCompile(`[<>:"/\\|?*]`)
	repeatedSeparators = regexp.MustCompile(`( - )+`)
	// \p{Zs} catches the non-breaking spaces HTML entities decode to.
	whitespaceRuns   = regexp.MustCompile(`[\s\p{Zs}]+`)
	nonStandardChars = regexp.MustCompile(`[^a-zA-Z0-9.\s\p{Zs}]`)
)

// Normalize maps a display string to one path segment under the default
// policy: decode HTML entities, replace reserved characters with " - ",
// trim the separator from both ends, collapse separator runs, collapse
// whitespace runs.
func Normalize(part string) string {
	part = html.UnescapeString(part)
	part = reservedChars.ReplaceAllString(part, separator)
	part = strings.Trim(part, " -")
	part = repeatedSeparators.ReplaceAllString(part, separator)
	part = whitespaceRuns.ReplaceAllString(part, " ")
	return part
}

// NormalizeCompatible maps a display string to one path segment under the
// compatibility policy: every character that is not a letter, digit,
// period, or whitespace becomes "_", then whitespace runs collapse to a
// single space. Underscore runs are kept as-is.
func NormalizeCompatible(part string) string {
	part = nonStandardChars.ReplaceAllString(part, "_")
	part = whitespaceRuns.ReplaceAllString(part, " ")
	return part
}

// Resolver computes destination paths from the current naming
// configuration. Change detection compares its output against cached
// paths, so the same Resolver settings must be used for a whole sync pass.
type Resolver struct {
	Root          string
	OmitPublisher bool
	Compatibility bool
}

func (r *Resolver) normalize(part string) string {
	if r.Compatibility {
		return NormalizeCompatible(part)
	}
	return Normalize(part)
}

// FilePath returns the full destination path for an item:
// root/[publisher/]product/filename. The publisher segment is dropped when
// OmitPublisher is set; a missing publisher name falls back to
// DefaultPublisher before normalization.
func (r *Resolver) FilePath(productName, publisherName, filename string) string {
	productSeg := r.normalize(productName)
	itemSeg := r.normalize(filename)

	if r.OmitPublisher {
		return filepath.Join(r.Root, productSeg, itemSeg)
	}

	if publisherName == "" {
		publisherName = DefaultPublisher
	}
	return filepath.Join(r.Root, r.normalize(publisherName), productSeg, itemSeg)
}
