package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/tmstorey/libmirror/internal/domain"
)

// GetFile retrieves the cache row for (productID, itemID), or nil when
// absent
func (s *Store) GetFile(productID, itemID int64) (*domain.FileRecord, error) {
	query := `
		SELECT product_id, item_id, filename, api_last_modified, api_checksum,
			   local_path, local_last_synced, local_checksum
		FROM files
		WHERE product_id = ? AND item_id = ?
	`

	record := &domain.FileRecord{}
	var apiLastModified, apiChecksum, localChecksum sql.NullString

	err := s.db.QueryRow(query, productID, itemID).Scan(
		&record.ProductID, &record.ItemID, &record.Filename,
		&apiLastModified, &apiChecksum,
		&record.LocalPath, &record.LocalLastSynced, &localChecksum,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if apiLastModified.Valid {
		record.APILastModified = apiLastModified.String
	}
	if apiChecksum.Valid {
		record.APIChecksum = apiChecksum.String
	}
	if localChecksum.Valid {
		record.LocalChecksum = localChecksum.String
	}

	return record, nil
}

// UpsertFile inserts a cache row or overwrites all its fields. The whole
// row is written by one statement, so a concurrent reader never observes
// a half-applied update.
func (s *Store) UpsertFile(record *domain.FileRecord) error {
	query := `
		INSERT INTO files (
			product_id, item_id, filename, api_last_modified, api_checksum,
			local_path, local_last_synced, local_checksum
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, item_id) DO UPDATE SET
			filename = excluded.filename,
			api_last_modified = excluded.api_last_modified,
			api_checksum = excluded.api_checksum,
			local_path = excluded.local_path,
			local_last_synced = excluded.local_last_synced,
			local_checksum = excluded.local_checksum
	`

	var apiLastModified, apiChecksum, localChecksum sql.NullString
	if record.APILastModified != "" {
		apiLastModified = sql.NullString{String: record.APILastModified, Valid: true}
	}
	if record.APIChecksum != "" {
		apiChecksum = sql.NullString{String: record.APIChecksum, Valid: true}
	}
	if record.LocalChecksum != "" {
		localChecksum = sql.NullString{String: record.LocalChecksum, Valid: true}
	}

	_, err := s.db.Exec(
		query,
		record.ProductID, record.ItemID, record.Filename,
		apiLastModified, apiChecksum,
		record.LocalPath, record.LocalLastSynced, localChecksum,
	)
	return err
}

// AllFileKeys enumerates every cached (product_id, item_id) key
func (s *Store) AllFileKeys() ([]domain.FileKey, error) {
	rows, err := s.db.Query("SELECT product_id, item_id FROM files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.FileKey
	for rows.Next() {
		var key domain.FileKey
		if err := rows.Scan(&key.ProductID, &key.ItemID); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// DeleteFiles removes the cache rows for the given keys inside one
// transaction. Only metadata is removed, files on disk stay where they are.
func (s *Store) DeleteFiles(keys []domain.FileKey) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM files WHERE product_id = ? AND item_id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.Exec(key.ProductID, key.ItemID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}

	return tx.Commit()
}
