package project

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/normalize"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// Service defines all project-level operations
type Service interface {
	// Read operations
	GetAllProjects(ctx context.Context, collection types.Collection) (*Listing, error)
	GetProjectByID(ctx context.Context, collection types.Collection, id types.ProjectID) (*models.Project, error)
	GetTaskCount(ctx context.Context, collection types.Collection, id types.ProjectID) (int, error)

	// Write operations
	ImportProjects(ctx context.Context, req ImportRequest) (*ImportSummary, error)
	DeleteProject(ctx context.Context, req DeleteProjectRequest) error
}

// Listing is a normalized collection read
type Listing struct {
	Collection types.Collection
	Sequence   int64
	Projects   []*models.Project
	Warnings   []*models.ValidationError
}

// ImportRequest encapsulates raw documents to write into a collection
type ImportRequest struct {
	Collection types.Collection
	Documents  []models.RawRecord
	DryRun     bool
}

// ImportSummary reports what an import wrote
type ImportSummary struct {
	Imported []types.ProjectID
	Tasks    int
	Warnings []*models.ValidationError
}

// DeleteProjectRequest encapsulates data for deleting a project
type DeleteProjectRequest struct {
	Collection types.Collection
	ID         types.ProjectID
	Force      bool // delete even when the project still has tasks
}

// Store is the part of a document store the project service needs
type Store interface {
	GetProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) (*models.Project, error)
	PutProject(ctx context.Context, collection types.Collection, doc models.RawRecord) error
	DeleteProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) error
	ListProjects(ctx context.Context, collection types.Collection) (docstore.Snapshot, error)
}

// service implements Service interface
type service struct {
	store Store
}

// NewService creates a new project service
func NewService(store Store) Service {
	return &service{store: store}
}

// GetAllProjects reads and normalizes every project in a collection
func (s *service) GetAllProjects(ctx context.Context, collection types.Collection) (*Listing, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}
	snap, err := s.store.ListProjects(ctx, collection)
	if err != nil {
		return nil, err
	}
	projects, warnings := normalize.NormalizeSnapshot(collection, snap.Docs)
	docstore.LogWarnings(collection, warnings)
	return &Listing{
		Collection: collection,
		Sequence:   snap.Sequence,
		Projects:   projects,
		Warnings:   warnings,
	}, nil
}

// GetProjectByID retrieves a specific project
func (s *service) GetProjectByID(ctx context.Context, collection types.Collection, id types.ProjectID) (*models.Project, error) {
	if err := validateRef(collection, id); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, collection, id)
}

// GetTaskCount returns the number of tasks in a project, nested ones included
func (s *service) GetTaskCount(ctx context.Context, collection types.Collection, id types.ProjectID) (int, error) {
	p, err := s.GetProjectByID(ctx, collection, id)
	if err != nil {
		return 0, err
	}
	return tree.Count(p.Tasks)
}

// ImportProjects validates every document before writing any of them.
// Documents are stored as given; invalid subtrees are only reported.
func (s *service) ImportProjects(ctx context.Context, req ImportRequest) (*ImportSummary, error) {
	if req.Collection == "" {
		return nil, ErrInvalidCollection
	}
	if len(req.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	summary := &ImportSummary{}
	seen := make(map[types.ProjectID]struct{}, len(req.Documents))
	for i, doc := range req.Documents {
		p, warnings, err := normalize.NormalizeProject(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if utf8.RuneCountInString(p.Name) > models.MaxTitleLength {
			return nil, fmt.Errorf("document %d: %w", i, ErrNameTooLong)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateImport, p.ID)
		}
		seen[p.ID] = struct{}{}

		n, err := tree.Count(p.Tasks)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		summary.Tasks += n
		summary.Warnings = append(summary.Warnings, warnings...)
		summary.Imported = append(summary.Imported, p.ID)
	}

	if req.DryRun {
		return summary, nil
	}
	for i, doc := range req.Documents {
		if err := s.store.PutProject(ctx, req.Collection, doc); err != nil {
			return nil, fmt.Errorf("failed to write project %s: %w", summary.Imported[i], err)
		}
	}
	docstore.LogWarnings(req.Collection, summary.Warnings)
	slog.Info("projects imported",
		"collection", req.Collection,
		"projects", len(summary.Imported),
		"tasks", summary.Tasks)
	return summary, nil
}

// DeleteProject removes a project document. Projects with tasks are
// kept unless Force is set.
func (s *service) DeleteProject(ctx context.Context, req DeleteProjectRequest) error {
	if err := validateRef(req.Collection, req.ID); err != nil {
		return err
	}
	if !req.Force {
		n, err := s.GetTaskCount(ctx, req.Collection, req.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s has %d", ErrProjectHasTasks, req.ID, n)
		}
	}
	if err := s.store.DeleteProject(ctx, req.Collection, req.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func validateRef(collection types.Collection, id types.ProjectID) error {
	if collection == "" {
		return ErrInvalidCollection
	}
	if id.IsZero() {
		return ErrInvalidProjectID
	}
	return nil
}
