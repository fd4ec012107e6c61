package database

import (
	"context"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

// setupTestRepo creates an in-memory database with the schema applied
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := InitDB(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	repo := NewRepository(db)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// setupTestRepoFile creates a file-based database for persistence tests
func setupTestRepoFile(t *testing.T) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "taskroll-test.db")
	db, err := InitDB(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to create file database: %v", err)
	}
	return NewRepository(db), path
}
