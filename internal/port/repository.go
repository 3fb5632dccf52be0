package port

import (
	"time"

	"github.com/tmstorey/libmirror/internal/domain"
)

// ProductRepository defines persistence operations for product metadata.
type ProductRepository interface {
	// UpsertProduct inserts the product or overwrites its mutable fields.
	// Idempotent; products are never deleted by the sync engine.
	UpsertProduct(product *domain.Product, checkedAt time.Time) error
}

// FileRepository defines persistence operations for per-file sync metadata.
type FileRepository interface {
	// GetFile returns the cache row for (productID, itemID), or nil when
	// no row exists.
	GetFile(productID, itemID int64) (*domain.FileRecord, error)

	// UpsertFile inserts the record or overwrites all its fields in a
	// single atomic statement.
	UpsertFile(record *domain.FileRecord) error

	// AllFileKeys enumerates every cached (productID, itemID) key.
	AllFileKeys() ([]domain.FileKey, error)

	// DeleteFiles removes the rows for the given keys. Metadata only, the
	// files on disk are left untouched.
	DeleteFiles(keys []domain.FileKey) error
}

// Store combines the repositories backed by one metadata database.
type Store interface {
	ProductRepository
	FileRepository

	Close() error
}
