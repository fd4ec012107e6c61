package aggregate

import (
	"time"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// CollectionAggregate sums the project aggregates of one collection and,
// when a user is given, that user's task buckets within it
type CollectionAggregate struct {
	Kind             types.Collection
	Projects         []models.ProjectAggregate
	ProjectCount     int
	Total            int
	Completed        int
	Open             int
	Overdue          int
	CriticalProjects int
	MyOpen           int
	MyOverdue        int
	MyDueToday       int
}

// Collection aggregates every project in a collection. An empty user
// leaves the "my" counters at zero.
func Collection(kind types.Collection, projects []*models.Project, user types.UserID, now time.Time) (CollectionAggregate, error) {
	out := CollectionAggregate{
		Kind:     kind,
		Projects: make([]models.ProjectAggregate, 0, len(projects)),
	}

	for _, p := range projects {
		if p == nil {
			continue
		}
		agg, err := Project(p, now)
		if err != nil {
			return CollectionAggregate{}, err
		}
		out.Projects = append(out.Projects, agg)
		out.ProjectCount++
		out.Total += agg.Total
		out.Completed += agg.Completed
		out.Open += agg.Open
		out.Overdue += agg.Overdue
		if agg.HasCritical {
			out.CriticalProjects++
		}
	}

	if user.IsZero() {
		return out, nil
	}
	view, err := UserView(user, projects, now)
	if err != nil {
		return CollectionAggregate{}, err
	}
	out.MyOpen = view.Open
	out.MyOverdue = len(view.Overdue)
	out.MyDueToday = len(view.DueToday)
	return out, nil
}
