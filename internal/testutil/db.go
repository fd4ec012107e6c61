package testutil

import (
	"context"
	"testing"

	"github.com/thenoetrevino/taskroll/internal/database"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/events"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// SetupTestStore creates a document store over an in-memory database.
// The store and its broker are closed when the test ends.
func SetupTestStore(t *testing.T) *docstore.LocalStore {
	t.Helper()

	db, err := database.InitDB(context.Background(), database.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	broker := events.NewBroker(16)
	store := docstore.NewLocalStore(database.NewRepository(db), broker)
	t.Cleanup(func() {
		_ = store.Close()
		_ = broker.Close()
	})
	return store
}

// SampleProject returns project "P" owned by u1:
//
//	A "Draft rule" (in_progress, u1, critical "NOTICE pending")
//	  A1 "Outline" (done)
//	  A2 "Comments" (todo, u2, due 2024-06-10)
//	B "Publish" (blocked, u1, due 2024-06-20)
func SampleProject() models.RawRecord {
	return models.RawRecord{
		"id":      "P",
		"name":    "Rulemaking",
		"ownerId": "u1",
		"team": []any{
			map[string]any{"id": "u2", "name": "Ana"},
		},
		"tasks": []any{
			map[string]any{
				"id":            "A",
				"title":         "Draft rule",
				"status":        "in_progress",
				"assigneeIds":   []any{"u1"},
				"criticalIssue": "NOTICE pending",
				"children": []any{
					map[string]any{"id": "A1", "title": "Outline", "status": "done"},
					map[string]any{"id": "A2", "title": "Comments", "status": "todo", "assigneeIds": []any{"u2"}, "dueDate": "2024-06-10"},
				},
			},
			map[string]any{"id": "B", "title": "Publish", "status": "blocked", "assigneeIds": []any{"u1"}, "dueDate": "2024-06-20"},
		},
	}
}

// SeedProject writes doc into collection
func SeedProject(t *testing.T, store docstore.Store, collection types.Collection, doc models.RawRecord) {
	t.Helper()
	if err := store.PutProject(context.Background(), collection, doc); err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
}
