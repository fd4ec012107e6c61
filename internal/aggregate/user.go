package aggregate

import (
	"slices"
	"time"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// Flatten collects every task assigned to user across the projects the
// user owns or is on the team of. Each entry keeps its project and parent
// context. Entries come out in project order, then tree pre-order.
func Flatten(user types.UserID, projects []*models.Project) ([]models.UserTask, error) {
	var out []models.UserTask
	for _, p := range projects {
		if p == nil || !p.HasMember(user) {
			continue
		}
		err := tree.Walk(p.Tasks, func(n, parent *models.Task, depth int) error {
			if !n.IsAssignedTo(user) {
				return nil
			}
			entry := models.UserTask{
				Task:        n,
				ProjectID:   p.ID,
				ProjectName: p.Name,
				ProjectKind: p.Kind,
				Depth:       depth,
			}
			if parent != nil {
				entry.ParentID = parent.ID
			}
			out = append(out, entry)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UserView builds the "my tasks" view: the flattened list ordered by due
// date (undated last) then title, plus the derived buckets as of now
func UserView(user types.UserID, projects []*models.Project, now time.Time) (models.UserTaskView, error) {
	tasks, err := Flatten(user, projects)
	if err != nil {
		return models.UserTaskView{}, err
	}
	slices.SortStableFunc(tasks, compareByDue)

	view := models.UserTaskView{
		UserID:           user,
		Tasks:            tasks,
		Overdue:          make([]models.UserTask, 0),
		DueToday:         make([]models.UserTask, 0),
		CriticalProjects: make([]types.ProjectID, 0),
	}
	if view.Tasks == nil {
		view.Tasks = make([]models.UserTask, 0)
	}

	critical := make(map[types.ProjectID]struct{})
	for _, ut := range tasks {
		if ut.Task.IsDone() {
			view.Completed++
		} else {
			view.Open++
		}
		if ut.Task.IsOverdue(now) {
			view.Overdue = append(view.Overdue, ut)
		}
		if ut.Task.IsDueOn(now) {
			view.DueToday = append(view.DueToday, ut)
		}
		if ut.Task.HasCriticalIssue() {
			if _, seen := critical[ut.ProjectID]; !seen {
				critical[ut.ProjectID] = struct{}{}
				view.CriticalProjects = append(view.CriticalProjects, ut.ProjectID)
			}
		}
	}
	return view, nil
}

func compareByDue(a, b models.UserTask) int {
	ad, bd := a.Task.DueDate, b.Task.DueDate
	switch {
	case ad.IsZero() && !bd.IsZero():
		return 1
	case !ad.IsZero() && bd.IsZero():
		return -1
	case !ad.IsZero() && !bd.IsZero():
		if r := ad.Compare(bd); r != 0 {
			return r
		}
	}
	if a.Task.Title < b.Task.Title {
		return -1
	}
	if a.Task.Title > b.Task.Title {
		return 1
	}
	return 0
}
