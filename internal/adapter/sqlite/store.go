// Package sqlite implements the metadata cache on top of modernc.org/sqlite.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tmstorey/libmirror/internal/port"
)

// Store implements port.Store using SQLite
type Store struct {
	db *sql.DB
}

// Ensure Store implements port.Store
var _ port.Store = (*Store)(nil)

// Open opens a connection pool to the SQLite database. Pragmas are passed
// in the DSN so they apply to every pooled connection, not just the first
// one; concurrent sync workers each check a connection out of the pool.
func Open(dbPath string) (*Store, error) {
	dsn := dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate creates the database schema if it does not exist
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS products (
			product_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			publisher_name TEXT,
			last_api_check TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS files (
			product_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			filename TEXT NOT NULL,
			api_last_modified TEXT,
			api_checksum TEXT,
			local_path TEXT NOT NULL,
			local_last_synced TIMESTAMP,
			local_checksum TEXT,
			PRIMARY KEY (product_id, item_id),
			FOREIGN KEY (product_id) REFERENCES products(product_id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_files_local_path ON files (local_path)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}
