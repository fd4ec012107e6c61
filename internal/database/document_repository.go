package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrVersionConflict  = errors.New("document was modified concurrently")
)

// AnyVersion skips the optimistic version check in Put
const AnyVersion int64 = -1

// Document is one stored raw record
type Document struct {
	Collection string
	ID         string
	Body       []byte
	Version    int64
	UpdatedAt  time.Time
}

// DocumentRepo handles all document-related database operations.
type DocumentRepo struct {
	db *sql.DB
}

// Get loads a single document
func (r *DocumentRepo) Get(ctx context.Context, collection, id string) (*Document, error) {
	doc := &Document{Collection: collection, ID: id}
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT body, version, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&body, &doc.Version, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	doc.Body = []byte(body)
	return doc, nil
}

// List loads every document in a collection, ordered by id, together with
// the collection sequence the listing corresponds to
func (r *DocumentRepo) List(ctx context.Context, collection string) ([]*Document, int64, error) {
	var docs []*Document
	var seq int64

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, body, version, updated_at FROM documents WHERE collection = ? ORDER BY id`,
			collection,
		)
		if err != nil {
			return fmt.Errorf("failed to list documents in %s: %w", collection, err)
		}
		defer rows.Close()

		for rows.Next() {
			doc := &Document{Collection: collection}
			var body string
			if err := rows.Scan(&doc.ID, &body, &doc.Version, &doc.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan document: %w", err)
			}
			doc.Body = []byte(body)
			docs = append(docs, doc)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate documents: %w", err)
		}

		seq, err = currentSequence(ctx, tx, collection)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return docs, seq, nil
}

// Put inserts or replaces a document and returns the new collection
// sequence. With expectedVersion other than AnyVersion the write fails with
// ErrVersionConflict unless the stored version matches (0 = must not exist).
func (r *DocumentRepo) Put(ctx context.Context, collection, id string, body []byte, expectedVersion int64) (int64, error) {
	var seq int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var current int64
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM documents WHERE collection = ? AND id = ?`, collection, id,
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read version of %s/%s: %w", collection, id, err)
		}
		if expectedVersion != AnyVersion && current != expectedVersion {
			return fmt.Errorf("%w: %s/%s at version %d, expected %d",
				ErrVersionConflict, collection, id, current, expectedVersion)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, body, version, updated_at)
			VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
			ON CONFLICT(collection, id) DO UPDATE SET
				body = excluded.body,
				version = documents.version + 1,
				updated_at = CURRENT_TIMESTAMP
		`, collection, id, string(body))
		if err != nil {
			return fmt.Errorf("failed to write document %s/%s: %w", collection, id, err)
		}

		seq, err = bumpSequence(ctx, tx, collection)
		return err
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Delete removes a document and returns the new collection sequence
func (r *DocumentRepo) Delete(ctx context.Context, collection, id string) (int64, error) {
	var seq int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
		if err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
		}

		seq, err = bumpSequence(ctx, tx, collection)
		return err
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Sequence returns the collection's current change counter
func (r *DocumentRepo) Sequence(ctx context.Context, collection string) (int64, error) {
	return currentSequence(ctx, r.db, collection)
}

// Collections lists every collection that holds at least one document
func (r *DocumentRepo) Collections(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
