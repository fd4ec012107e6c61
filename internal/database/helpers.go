package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// withTx executes a function within a database transaction.
// It automatically handles begin, rollback on error, and commit on success.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// bumpSequence advances the collection's change counter and returns the new value
func bumpSequence(ctx context.Context, tx *sql.Tx, collection string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO collection_sequences (collection, sequence) VALUES (?, 1)
		ON CONFLICT(collection) DO UPDATE SET sequence = sequence + 1
		RETURNING sequence
	`, collection).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to bump sequence for %s: %w", collection, err)
	}
	return seq, nil
}

// currentSequence reads the collection's change counter (0 if never written)
func currentSequence(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, collection string) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx,
		`SELECT sequence FROM collection_sequences WHERE collection = ?`, collection,
	).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence for %s: %w", collection, err)
	}
	return seq, nil
}
