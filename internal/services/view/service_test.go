package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/taskroll/internal/filter"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/sorter"
	"github.com/thenoetrevino/taskroll/internal/types"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func task(id, title string, status models.Status, children ...*models.Task) *models.Task {
	return &models.Task{ID: types.TaskID(id), Title: title, Status: status, Children: children}
}

func ids(roots []*models.Task) []types.TaskID {
	var out []types.TaskID
	for _, r := range roots {
		out = append(out, r.ID)
	}
	return out
}

func TestGetFilteredSortedTree(t *testing.T) {
	roots := []*models.Task{
		task("A", "Zoning", models.StatusInProgress,
			task("A2", "Publish notice", models.StatusToDo),
			task("A1", "Draft notice", models.StatusDone),
			task("A3", "Hearing", models.StatusToDo),
		),
		task("B", "Budget", models.StatusToDo),
		task("C", "Annual notice", models.StatusBlocked),
	}
	svc := NewService(func() time.Time { return now })

	out, err := svc.GetFilteredSortedTree(roots, filter.Predicate{Text: "NOTICE"}, sorter.Chain{{Field: sorter.FieldTitle}})
	require.NoError(t, err)

	assert.Equal(t, []types.TaskID{"C", "A"}, ids(out))
	assert.Equal(t, []types.TaskID{"A1", "A2"}, ids(out[1].Children))

	// inputs are untouched
	assert.Len(t, roots[0].Children, 3)
	assert.Equal(t, types.TaskID("A2"), roots[0].Children[0].ID)
}

func TestGetFilteredSortedTree_EmptyPredicateKeepsAll(t *testing.T) {
	roots := []*models.Task{
		task("B", "b", models.StatusToDo),
		task("A", "a", models.StatusDone, task("A1", "x", models.StatusToDo)),
	}
	svc := NewService(nil)

	out, err := svc.GetFilteredSortedTree(roots, filter.Predicate{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"A", "B"}, ids(out))
	assert.Len(t, out[0].Children, 1)
}

func TestGetProjectAggregate(t *testing.T) {
	p := &models.Project{
		ID: "P",
		Tasks: []*models.Task{
			task("A", "a", models.StatusInProgress, task("A1", "a1", models.StatusDone)),
			{ID: "B", Title: "b", Status: models.StatusToDo, DueDate: now.Add(-time.Hour)},
		},
	}

	tests := []struct {
		name        string
		clock       time.Time
		wantOverdue int
	}{
		{"after due date", now, 1},
		{"before due date", now.Add(-2 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(func() time.Time { return tt.clock })
			agg, err := svc.GetProjectAggregate(p)
			require.NoError(t, err)
			assert.Equal(t, 3, agg.Total)
			assert.Equal(t, 1, agg.Completed)
			assert.InDelta(t, 100.0/3, agg.CompletionPercentage, 0.001)
			assert.Equal(t, tt.wantOverdue, agg.Overdue)
		})
	}

	agg, err := NewService(nil).GetProjectAggregate(nil)
	require.NoError(t, err)
	assert.Zero(t, agg.Total)
}

func TestGetUserTaskView(t *testing.T) {
	p := &models.Project{
		ID:      "P",
		OwnerID: "u1",
		Tasks: []*models.Task{
			{ID: "late", Title: "late", Status: models.StatusToDo, AssigneeIDs: []types.UserID{"u1"}, DueDate: now.Add(-time.Hour)},
			{ID: "other", Title: "other", Status: models.StatusToDo, AssigneeIDs: []types.UserID{"u2"}},
		},
	}
	svc := NewService(func() time.Time { return now })

	view, err := svc.GetUserTaskView("u1", []*models.Project{p})
	require.NoError(t, err)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, types.TaskID("late"), view.Tasks[0].Task.ID)
	assert.Len(t, view.Overdue, 1)
	assert.Len(t, view.DueToday, 1)
}
