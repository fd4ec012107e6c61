package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// Store is the part of a document store the task service needs
type Store interface {
	docstore.Mutator
	GetProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) (*models.Project, error)
}

// Service defines all task-related business operations
type Service interface {
	// Read operations
	GetTask(ctx context.Context, ref Ref) (*models.Task, error)

	// Write operations
	CreateTask(ctx context.Context, req CreateTaskRequest) (types.TaskID, docstore.Result)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) docstore.Result
	DeleteTask(ctx context.Context, ref Ref) docstore.Result
	SetStatus(ctx context.Context, ref Ref, status models.Status) docstore.Result
}

// Ref locates a task inside a project document
type Ref struct {
	Collection types.Collection
	ProjectID  types.ProjectID
	TaskID     types.TaskID
}

// CreateTaskRequest encapsulates all data needed to create a task
type CreateTaskRequest struct {
	Collection    types.Collection
	ProjectID     types.ProjectID
	ParentID      types.TaskID // Optional: empty creates a root task
	Title         string
	Status        models.Status // Optional: empty means todo
	AssigneeIDs   []types.UserID
	StartDate     time.Time
	DueDate       time.Time
	CriticalIssue string
	Attachments   []models.Attachment
}

// UpdateTaskRequest encapsulates all data needed to update a task
// Fields with pointers are optional - nil means don't update
type UpdateTaskRequest struct {
	Ref
	Title         *string
	Status        *models.Status
	AssigneeIDs   *[]types.UserID
	StartDate     *time.Time
	DueDate       *time.Time
	CriticalIssue *string
	Attachments   *[]models.Attachment
}

// Option configures the service
type Option func(*service)

// WithClock sets the time source used for done dates
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithIDGenerator replaces the UUID generator for new task ids
func WithIDGenerator(newID func() types.TaskID) Option {
	return func(s *service) {
		s.newID = newID
	}
}

// service implements Service interface
type service struct {
	store Store
	now   func() time.Time
	newID func() types.TaskID
}

// NewService creates a new task service
func NewService(store Store, opts ...Option) Service {
	s := &service{
		store: store,
		now:   time.Now,
		newID: func() types.TaskID { return types.TaskID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTask loads one task with its subtree
func (s *service) GetTask(ctx context.Context, ref Ref) (*models.Task, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(ctx, ref.Collection, ref.ProjectID)
	if err != nil {
		return nil, err
	}
	node, _, err := tree.Find(project.Tasks, ref.TaskID)
	if errors.Is(err, tree.ErrTaskNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, ref.TaskID)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

// CreateTask handles task creation with validation and business rules
func (s *service) CreateTask(ctx context.Context, req CreateTaskRequest) (types.TaskID, docstore.Result) {
	if req.Status == "" {
		req.Status = models.StatusToDo
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateCreateTask(req); err != nil {
		return "", docstore.Failed(err)
	}

	t := &models.Task{
		ID:            s.newID(),
		Title:         req.Title,
		Status:        req.Status,
		AssigneeIDs:   dedupe(req.AssigneeIDs),
		StartDate:     req.StartDate,
		DueDate:       req.DueDate,
		CriticalIssue: strings.TrimSpace(req.CriticalIssue),
		Attachments:   slices.Clone(req.Attachments),
	}
	if t.IsDone() {
		t.DoneDate = s.now().UTC()
	}

	res := s.store.CreateTask(ctx, req.Collection, req.ProjectID, req.ParentID, t)
	if !res.Success {
		return "", s.wrap(res, "create task")
	}
	slog.Debug("task created",
		"collection", req.Collection,
		"project_id", req.ProjectID,
		"task_id", t.ID,
		"parent_id", req.ParentID)
	return t.ID, res
}

// UpdateTask applies the set fields of req to the stored task.
// The subtree is left untouched.
func (s *service) UpdateTask(ctx context.Context, req UpdateTaskRequest) docstore.Result {
	current, err := s.GetTask(ctx, req.Ref)
	if err != nil {
		return docstore.Failed(err)
	}

	updated := current.ShallowCopy()
	if req.Title != nil {
		updated.Title = strings.TrimSpace(*req.Title)
	}
	if req.AssigneeIDs != nil {
		updated.AssigneeIDs = dedupe(*req.AssigneeIDs)
	}
	if req.StartDate != nil {
		updated.StartDate = *req.StartDate
	}
	if req.DueDate != nil {
		updated.DueDate = *req.DueDate
	}
	if req.CriticalIssue != nil {
		updated.CriticalIssue = strings.TrimSpace(*req.CriticalIssue)
	}
	if req.Attachments != nil {
		updated.Attachments = slices.Clone(*req.Attachments)
	}
	if req.Status != nil {
		if err := s.transition(updated, *req.Status); err != nil {
			return docstore.Failed(err)
		}
	}

	if err := validateTask(updated); err != nil {
		return docstore.Failed(err)
	}

	res := s.store.UpdateTask(ctx, req.Collection, req.ProjectID, updated)
	if !res.Success {
		return s.wrap(res, "update task")
	}
	return res
}

// SetStatus moves a task through the status workflow
func (s *service) SetStatus(ctx context.Context, ref Ref, status models.Status) docstore.Result {
	return s.UpdateTask(ctx, UpdateTaskRequest{Ref: ref, Status: &status})
}

// DeleteTask removes a task and its whole subtree
func (s *service) DeleteTask(ctx context.Context, ref Ref) docstore.Result {
	if err := validateRef(ref); err != nil {
		return docstore.Failed(err)
	}
	res := s.store.DeleteTask(ctx, ref.Collection, ref.ProjectID, ref.TaskID)
	if !res.Success {
		return s.wrap(res, "delete task")
	}
	return res
}

// transition applies the status policy. Entering done stamps the done
// date; leaving done clears it.
func (s *service) transition(t *models.Task, to models.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	from := t.Status
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from.Label(), to.Label())
	}
	switch {
	case to == models.StatusDone && from != models.StatusDone:
		t.DoneDate = s.now().UTC()
	case to != models.StatusDone:
		t.DoneDate = time.Time{}
	}
	t.Status = to
	return nil
}

func (s *service) validateCreateTask(req CreateTaskRequest) error {
	if req.Collection == "" {
		return ErrInvalidCollection
	}
	if req.ProjectID.IsZero() {
		return ErrInvalidProjectID
	}
	if !req.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	return validateTask(&models.Task{
		Title:       req.Title,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		Attachments: req.Attachments,
	})
}

func validateRef(ref Ref) error {
	if ref.Collection == "" {
		return ErrInvalidCollection
	}
	if ref.ProjectID.IsZero() {
		return ErrInvalidProjectID
	}
	if ref.TaskID.IsZero() {
		return ErrInvalidTaskID
	}
	return nil
}

func validateTask(t *models.Task) error {
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(t.Title) > models.MaxTitleLength {
		return ErrTitleTooLong
	}
	if !t.StartDate.IsZero() && !t.DueDate.IsZero() && t.DueDate.Before(t.StartDate) {
		return ErrDueBeforeStart
	}
	for _, a := range t.Attachments {
		if strings.TrimSpace(a.URL) == "" {
			return ErrInvalidAttachment
		}
	}
	return nil
}

// wrap maps store-level errors onto service errors
func (s *service) wrap(res docstore.Result, op string) docstore.Result {
	err := res.Error
	if errors.Is(err, tree.ErrTaskNotFound) && !errors.Is(err, ErrTaskNotFound) {
		err = fmt.Errorf("%w: %w", ErrTaskNotFound, err)
	}
	return docstore.Failed(fmt.Errorf("failed to %s: %w", op, err))
}

func dedupe(ids []types.UserID) []types.UserID {
	out := make([]types.UserID, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
