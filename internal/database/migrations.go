package database

import (
	"context"
	"database/sql"
)

// runMigrations creates the database schema
func runMigrations(ctx context.Context, db *sql.DB) error {
	// One row per raw document; body is the JSON record as imported or
	// last written
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			body TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return err
	}

	// Monotonic change counter per collection, bumped on every write
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collection_sequences (
			collection TEXT PRIMARY KEY,
			sequence INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_documents_updated
		ON documents(collection, updated_at)
	`)
	return err
}
