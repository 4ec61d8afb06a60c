package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pricewatch/internal/tracker"
	"pricewatch/pkg/errors"
)

// SQLiteStore implements Store on a local sqlite file. This is the default
// backend: single-tenant, survives restarts, no server to run.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewStore("", "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStore("", "failed to open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewStore("", "failed to ping database", err)
	}

	// Synchronous writes so Put is committed before it returns.
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = FULL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.NewStore("", "failed to configure database", err)
		}
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS products (
		"product_id" TEXT NOT NULL PRIMARY KEY,
		"last_price" REAL NOT NULL,
		"last_checked_at" TEXT NOT NULL
	);`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errors.NewStore("", "failed to create products table", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetLast returns the last recorded observation for productID.
func (s *SQLiteStore) GetLast(ctx context.Context, productID string) (*tracker.PriceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT last_price, last_checked_at FROM products WHERE product_id = ?`, productID)

	var price float64
	var checkedAt string
	if err := row.Scan(&price, &checkedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewStore(productID, "failed to read record", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, checkedAt)
	if err != nil {
		return nil, errors.NewStore(productID, "corrupt timestamp in record", err)
	}

	return &tracker.PriceRecord{
		ProductID:     productID,
		LastPrice:     price,
		LastCheckedAt: ts,
	}, nil
}

// Put upserts the record for productID.
func (s *SQLiteStore) Put(ctx context.Context, productID string, price float64, checkedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO products (product_id, last_price, last_checked_at)
	VALUES (?, ?, ?)
	ON CONFLICT(product_id) DO UPDATE SET
		last_price = excluded.last_price,
		last_checked_at = excluded.last_checked_at;
	`, productID, price, checkedAt.Format(time.RFC3339Nano))
	if err != nil {
		return errors.NewStore(productID, "failed to upsert record", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
