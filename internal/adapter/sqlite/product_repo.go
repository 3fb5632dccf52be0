package sqlite

import (
	"database/sql"
	"time"

	"github.com/tmstorey/libmirror/internal/domain"
)

// UpsertProduct inserts a product or overwrites its mutable fields.
// Products are never deleted by the sync engine.
func (s *Store) UpsertProduct(product *domain.Product, checkedAt time.Time) error {
	query := `
		INSERT INTO products (product_id, name, publisher_name, last_api_check)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			name = excluded.name,
			publisher_name = excluded.publisher_name,
			last_api_check = excluded.last_api_check
	`

	var publisher sql.NullString
	if product.Publisher != "" {
		publisher = sql.NullString{String: product.Publisher, Valid: true}
	}

	_, err := s.db.Exec(query, product.ID, product.Name, publisher, checkedAt)
	return err
}

// GetProduct retrieves a product's stored metadata by id. The product's
// file list is not persisted, only its row fields.
func (s *Store) GetProduct(productID int64) (*domain.Product, *time.Time, error) {
	query := `
		SELECT product_id, name, publisher_name, last_api_check
		FROM products
		WHERE product_id = ?
	`

	product := &domain.Product{}
	var publisher sql.NullString
	var checkedAt *time.Time

	err := s.db.QueryRow(query, productID).Scan(&product.ID, &product.Name, &publisher, &checkedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if publisher.Valid {
		product.Publisher = publisher.String
	}

	return product, checkedAt, nil
}
