package catalog

import (
	"github.com/tmstorey/libmirror/internal/domain"
)

// authResponse is returned by the token exchange endpoint
type authResponse struct {
	AccessToken string `json:"access_token"`
}

// productsResponse is one page of the purchased-products listing
type productsResponse struct {
	Products []productPayload `json:"products"`
}

// productPayload represents a purchased product as reported by the catalog
type productPayload struct {
	OrderProductID int64  `json:"orderProductId"`
	Name           string `json:"name"`
	Publisher      struct {
		Name string `json:"name"`
	} `json:"publisher"`
	Files []filePayload `json:"files"`
}

// filePayload represents one downloadable file within a product
type filePayload struct {
	Index            int64             `json:"index"`
	Filename         string            `json:"filename"`
	FileLastModified string            `json:"fileLastModified"`
	Checksums        []checksumPayload `json:"checksums"`
}

type checksumPayload struct {
	Checksum     string `json:"checksum"`
	ChecksumDate string `json:"checksumDate"`
}

// downloadURLResponse is returned by the file-task endpoint
type downloadURLResponse struct {
	URL string `json:"url"`
}

// toDomain converts a wire product into the domain representation
func (p *productPayload) toDomain() domain.Product {
	product := domain.Product{
		ID:        p.OrderProductID,
		Name:      p.Name,
		Publisher: p.Publisher.Name,
		Files:     make([]domain.DownloadItem, 0, len(p.Files)),
	}

	for _, f := range p.Files {
		item := domain.DownloadItem{
			Index:        f.Index,
			Filename:     f.Filename,
			LastModified: f.FileLastModified,
			Checksums:    make([]domain.ChecksumEntry, 0, len(f.Checksums)),
		}
		for _, c := range f.Checksums {
			item.Checksums = append(item.Checksums, domain.ChecksumEntry{
				Checksum: c.Checksum,
				Date:     c.ChecksumDate,
			})
		}
		product.Files = append(product.Files, item)
	}

	return product
}
