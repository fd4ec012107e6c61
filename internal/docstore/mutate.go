package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/normalize"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// MaxConflictRetries bounds optimistic read-modify-write attempts
const MaxConflictRetries = 3

// EditFunc rewrites a project's task forest
type EditFunc func(roots []*models.Task) ([]*models.Task, error)

// InsertTask adds task under parentID, or as a root when parentID is empty
func InsertTask(parentID types.TaskID, task *models.Task) EditFunc {
	return func(roots []*models.Task) ([]*models.Task, error) {
		if task == nil {
			return nil, ErrNilTask
		}
		return tree.Insert(roots, parentID, task)
	}
}

// ReplaceTask swaps in task's own fields for the node with the same id
func ReplaceTask(task *models.Task) EditFunc {
	return func(roots []*models.Task) ([]*models.Task, error) {
		if task == nil {
			return nil, ErrNilTask
		}
		return tree.Replace(roots, task)
	}
}

// RemoveTask drops the node with id and its whole subtree
func RemoveTask(id types.TaskID) EditFunc {
	return func(roots []*models.Task) ([]*models.Task, error) {
		return tree.Remove(roots, id)
	}
}

// ApplyEdit normalizes a raw project document, runs edit over its task
// forest and returns a copy of the document with the tasks rewritten in
// canonical form. Every other field of the document is carried over.
func ApplyEdit(collection types.Collection, raw models.RawRecord, edit EditFunc) (models.RawRecord, error) {
	project, warnings, err := normalize.NormalizeProject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	LogWarnings(collection, warnings)

	roots, err := edit(project.Tasks)
	if err != nil {
		return nil, err
	}
	project.Tasks = roots

	canonical, err := normalize.SerializeProject(project)
	if err != nil {
		return nil, err
	}

	out := maps.Clone(raw)
	out["tasks"] = canonical["tasks"]
	return out, nil
}

// LogWarnings reports dropped records from a normalization pass
func LogWarnings(collection types.Collection, warnings []*models.ValidationError) {
	for _, w := range warnings {
		slog.Warn("dropped invalid record",
			"collection", collection,
			"path", w.PathString(),
			"reason", w.Reason)
	}
}

// DecodeDocument parses a stored JSON document. Numbers stay json.Number
// so epoch timestamps survive without float rounding.
func DecodeDocument(body []byte) (models.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rec models.RawRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: document is null", ErrInvalidDocument)
	}
	return rec, nil
}

// EncodeDocument serializes a raw document for storage
func EncodeDocument(rec models.RawRecord) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return body, nil
}

// DocumentID reads the project id a raw document is stored under. It
// follows the normalizer so stored keys match the ids readers see.
func DocumentID(rec models.RawRecord) (types.ProjectID, error) {
	if id := normalize.ProjectID(rec); !id.IsZero() {
		return id, nil
	}
	return "", fmt.Errorf("%w: %w", ErrInvalidDocument, models.ErrMissingID)
}
