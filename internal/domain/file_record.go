package domain

import (
	"fmt"
	"time"
)

// FileKey identifies one file in the metadata cache. Item ids are scoped to
// their product, so both parts are needed.
type FileKey struct {
	ProductID int64
	ItemID    int64
}

func (k FileKey) String() string {
	return fmt.Sprintf("%d/%d", k.ProductID, k.ItemID)
}

// FileRecord is the persisted metadata for one successfully downloaded file:
// the remote state it was downloaded at and where it was written locally.
// A record exists only for items that have been written to disk at least
// once; a failed download never creates or updates one.
type FileRecord struct {
	ProductID       int64
	ItemID          int64
	Filename        string
	APILastModified string // opaque ISO-8601 string, compared for equality only
	APIChecksum     string // newest checksum reported by the catalog at download time
	LocalPath       string // fully resolved destination path at last successful write
	LocalLastSynced time.Time
	LocalChecksum   string // hash of the bytes written, set only when download validation ran
}

// Key returns the cache key for this record.
func (r *FileRecord) Key() FileKey {
	return FileKey{ProductID: r.ProductID, ItemID: r.ItemID}
}
