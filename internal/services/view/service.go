// Package view exposes read-only projections of project trees
package view

import (
	"time"

	"github.com/thenoetrevino/taskroll/internal/aggregate"
	"github.com/thenoetrevino/taskroll/internal/filter"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/sorter"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// Service defines the read-side operations over loaded projects.
// None of them modify their inputs.
type Service interface {
	GetFilteredSortedTree(roots []*models.Task, predicate filter.Predicate, chain sorter.Chain) ([]*models.Task, error)
	GetProjectAggregate(project *models.Project) (models.ProjectAggregate, error)
	GetUserTaskView(user types.UserID, projects []*models.Project) (models.UserTaskView, error)
}

// service implements Service interface
type service struct {
	now func() time.Time
}

// NewService creates a view service. A nil clock means time.Now.
func NewService(now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{now: now}
}

// GetFilteredSortedTree prunes the forest to matching nodes and their
// ancestors, then orders every sibling group by chain
func (s *service) GetFilteredSortedTree(roots []*models.Task, predicate filter.Predicate, chain sorter.Chain) ([]*models.Task, error) {
	filtered, err := filter.Apply(roots, predicate)
	if err != nil {
		return nil, err
	}
	return sorter.Apply(filtered, chain)
}

// GetProjectAggregate rolls up one project as of the service clock
func (s *service) GetProjectAggregate(project *models.Project) (models.ProjectAggregate, error) {
	if project == nil {
		return models.ProjectAggregate{}, nil
	}
	return aggregate.Project(project, s.now())
}

// GetUserTaskView builds the user's task list across projects
func (s *service) GetUserTaskView(user types.UserID, projects []*models.Project) (models.UserTaskView, error) {
	return aggregate.UserView(user, projects, s.now())
}
