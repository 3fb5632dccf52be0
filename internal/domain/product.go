package domain

import (
	"time"
)

// Product represents one purchased product in the remote catalog,
// together with the downloadable files it contains.
type Product struct {
	ID        int64
	Name      string
	Publisher string
	Files     []DownloadItem
}

// DownloadItem represents a single downloadable file within a product.
type DownloadItem struct {
	// Index is the item id assigned by the catalog. It is only unique
	// within its product.
	Index        int64
	Filename     string
	LastModified string // remote-reported modification timestamp, opaque ISO-8601 string
	Checksums    []ChecksumEntry
}

// ChecksumEntry is one of possibly several checksums the catalog reports
// for an item, each with the timestamp it was computed at.
type ChecksumEntry struct {
	Checksum string
	Date     string
}

// checksumDateLayouts covers the timestamp formats the catalog has been
// observed to use for checksum dates.
var checksumDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseChecksumDate(s string) (time.Time, bool) {
	for _, layout := range checksumDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NewestChecksum returns the checksum with the latest associated date.
// Entries with unparseable dates sort before all parseable ones. It returns
// the empty string when the item reports no checksums at all.
func (i *DownloadItem) NewestChecksum() string {
	var (
		best     string
		bestTime time.Time
		found    bool
	)
	for _, entry := range i.Checksums {
		t, ok := parseChecksumDate(entry.Date)
		if !found || (ok && t.After(bestTime)) {
			best = entry.Checksum
			if ok {
				bestTime = t
			}
			found = true
		}
	}
	return best
}
