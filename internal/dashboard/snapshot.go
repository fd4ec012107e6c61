package dashboard

import (
	"slices"
	"time"

	"github.com/thenoetrevino/taskroll/internal/aggregate"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// CollectionState is the last applied state of one subscribed collection
type CollectionState struct {
	Collection types.Collection
	Sequence   int64
	Projects   []*models.Project
	Aggregate  aggregate.CollectionAggregate
	Warnings   int
	Loaded     bool
	Stale      bool
	LastError  error
	UpdatedAt  time.Time
}

// Snapshot is an immutable view of the store. Consumers must treat the
// projects as read-only; every applied change produces fresh copies.
type Snapshot struct {
	Version     uint64
	Badges      Badges
	Collections []CollectionState
}

// Collection returns the state of one collection
func (s Snapshot) Collection(c types.Collection) (CollectionState, bool) {
	for _, st := range s.Collections {
		if st.Collection == c {
			return st, true
		}
	}
	return CollectionState{}, false
}

// Projects lists the projects of every collection in subscription order
func (s Snapshot) Projects() []*models.Project {
	var out []*models.Project
	for _, st := range s.Collections {
		out = append(out, st.Projects...)
	}
	return out
}

// Stale reports whether any collection is serving last-good data
func (s Snapshot) Stale() bool {
	return slices.ContainsFunc(s.Collections, func(st CollectionState) bool { return st.Stale })
}

// Ready reports whether every collection has either loaded or failed.
// A snapshot with no collections is never ready.
func (s Snapshot) Ready() bool {
	if len(s.Collections) == 0 {
		return false
	}
	for _, st := range s.Collections {
		if !st.Loaded && !st.Stale {
			return false
		}
	}
	return true
}

// cloneProjects deep-copies projects and their task trees
func cloneProjects(projects []*models.Project) ([]*models.Project, error) {
	out := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		cp := *p
		cp.Team = slices.Clone(p.Team)
		cp.Tags = slices.Clone(p.Tags)
		tasks, err := tree.Clone(p.Tasks)
		if err != nil {
			return nil, err
		}
		cp.Tasks = tasks
		out = append(out, &cp)
	}
	return out, nil
}
