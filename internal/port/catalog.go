package port

import (
	"context"

	"github.com/tmstorey/libmirror/internal/domain"
)

// CatalogClient defines the interface to the remote content catalog.
type CatalogClient interface {
	// Authenticate exchanges the configured token for a session. It must be
	// called before any other method.
	Authenticate(ctx context.Context) error

	// ListPurchasedProducts enumerates every purchased product together
	// with its downloadable files.
	ListPurchasedProducts(ctx context.Context) ([]domain.Product, error)

	// PrepareDownloadURL asks the catalog to issue a time-limited download
	// URL for one item. It returns domain.ErrPrepareDownload (wrapped) when
	// the catalog cannot produce one.
	PrepareDownloadURL(ctx context.Context, productID, itemID int64) (string, error)
}

// Fetcher retrieves the content behind an issued download URL.
type Fetcher interface {
	// Fetch downloads the full content at url, following redirects. Any
	// transport error or non-2xx status is returned as an error.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
