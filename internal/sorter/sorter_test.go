package sorter

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/taskroll/internal/filter"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func task(id, title string, due time.Time, children ...*models.Task) *models.Task {
	return &models.Task{ID: types.TaskID(id), Title: title, Status: models.StatusToDo, DueDate: due, Children: children}
}

func ids(roots []*models.Task) []types.TaskID {
	var out []types.TaskID
	_ = tree.Walk(roots, func(n, _ *models.Task, _ int) error {
		out = append(out, n.ID)
		return nil
	})
	return out
}

func level(roots []*models.Task) []types.TaskID {
	out := make([]types.TaskID, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.ID)
	}
	return out
}

func randomForest(r *rand.Rand, n int) []*models.Task {
	var roots, all []*models.Task
	for i := 0; i < n; i++ {
		var due time.Time
		if r.Intn(4) != 0 {
			due = day(r.Intn(20))
		}
		t := task(fmt.Sprintf("t%d", i), fmt.Sprintf("Item %d", r.Intn(10)), due)
		t.Status = models.AllStatuses[r.Intn(len(models.AllStatuses))]
		if len(all) == 0 || r.Intn(3) == 0 {
			roots = append(roots, t)
		} else {
			parent := all[r.Intn(len(all))]
			parent.Children = append(parent.Children, t)
		}
		all = append(all, t)
	}
	return roots
}

// ============================================================================
// ParseChain
// ============================================================================

func TestParseChain(t *testing.T) {
	chain, err := ParseChain("due_date:desc, status ,title:asc")
	require.NoError(t, err)
	assert.Equal(t, Chain{
		{Field: FieldDueDate, Descending: true},
		{Field: FieldStatus},
		{Field: FieldTitle},
	}, chain)
	assert.Equal(t, "due_date:desc,status,title", chain.String())

	empty, err := ParseChain("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseChain("priority")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = ParseChain("title:sideways")
	assert.Error(t, err)
}

// ============================================================================
// Apply
// ============================================================================

func TestApply_SortsEachLevelIndependently(t *testing.T) {
	roots := []*models.Task{
		task("B", "Bravo", day(5),
			task("B2", "Zulu", day(1)),
			task("B1", "alpha", day(9)),
		),
		task("A", "Alpha", day(7),
			task("A2", "Yankee", time.Time{}),
			task("A1", "Xray", day(3)),
		),
	}

	byTitle, err := Apply(roots, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"A", "A1", "A2", "B", "B1", "B2"}, ids(byTitle))

	byDue, err := Apply(roots, Chain{{Field: FieldDueDate}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"B", "B2", "B1", "A", "A1", "A2"}, ids(byDue))

	// input untouched
	assert.Equal(t, []types.TaskID{"B", "B2", "B1", "A", "A2", "A1"}, ids(roots))
}

func TestApply_MissingDatesSortLastInBothDirections(t *testing.T) {
	roots := []*models.Task{
		task("none", "No date", time.Time{}),
		task("late", "Late", day(10)),
		task("early", "Early", day(1)),
	}

	asc, err := Apply(roots, Chain{{Field: FieldDueDate}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"early", "late", "none"}, level(asc))

	desc, err := Apply(roots, Chain{{Field: FieldDueDate, Descending: true}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"late", "early", "none"}, level(desc))
}

func TestApply_StatusAndTitleTieBreak(t *testing.T) {
	roots := []*models.Task{
		{ID: "d", Title: "b", Status: models.StatusDone},
		{ID: "t2", Title: "b", Status: models.StatusToDo},
		{ID: "t1", Title: "a", Status: models.StatusToDo},
		{ID: "p", Title: "z", Status: models.StatusInProgress},
	}

	out, err := Apply(roots, Chain{{Field: FieldStatus}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"t1", "t2", "p", "d"}, level(out))

	out, err = Apply(roots, Chain{{Field: FieldStatus, Descending: true}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"d", "p", "t1", "t2"}, level(out))
}

func TestApply_StableForEqualKeys(t *testing.T) {
	roots := []*models.Task{
		task("first", "Same", day(1)),
		task("second", "Same", day(1)),
		task("third", "Same", day(1)),
	}

	out, err := Apply(roots, Chain{{Field: FieldDueDate}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"first", "second", "third"}, level(out))
}

func TestApply_AssigneeCount(t *testing.T) {
	roots := []*models.Task{
		{ID: "two", Title: "x", AssigneeIDs: []types.UserID{"a", "b"}},
		{ID: "none", Title: "x"},
		{ID: "one", Title: "x", AssigneeIDs: []types.UserID{"a"}},
	}

	out, err := Apply(roots, Chain{{Field: FieldAssignees, Descending: true}})
	require.NoError(t, err)
	assert.Equal(t, []types.TaskID{"two", "one", "none"}, level(out))
}

func TestApply_CycleFailsClosed(t *testing.T) {
	a := task("A", "a", time.Time{})
	b := task("B", "b", time.Time{}, a)
	a.Children = []*models.Task{b}

	_, err := Apply([]*models.Task{a}, nil)
	assert.ErrorIs(t, err, tree.ErrCycle)
}

// ============================================================================
// Properties
// ============================================================================

var chains = []Chain{
	nil,
	{{Field: FieldDueDate}},
	{{Field: FieldDueDate, Descending: true}, {Field: FieldStatus}},
	{{Field: FieldStatus, Descending: true}, {Field: FieldTitle, Descending: true}},
}

func TestApply_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 25; i++ {
		roots := randomForest(r, 50)
		for _, c := range chains {
			once, err := Apply(roots, c)
			require.NoError(t, err)
			twice, err := Apply(once, c)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "chain %s", c)
		}
	}
}

func TestApply_ComposesWithFilter(t *testing.T) {
	r := rand.New(rand.NewSource(23))
	preds := []filter.Predicate{
		{Status: models.StatusDone},
		{Text: "item 3"},
	}

	for i := 0; i < 25; i++ {
		roots := randomForest(r, 50)
		for _, c := range chains {
			for _, p := range preds {
				sorted, err := Apply(roots, c)
				require.NoError(t, err)
				sortThenFilter, err := filter.Apply(sorted, p)
				require.NoError(t, err)

				filtered, err := filter.Apply(roots, p)
				require.NoError(t, err)
				filterThenSort, err := Apply(filtered, c)
				require.NoError(t, err)

				assert.Equal(t, ids(sortThenFilter), ids(filterThenSort), "chain %s", c)
			}
		}
	}
}
