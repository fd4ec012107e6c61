package models

import "github.com/thenoetrevino/taskroll/internal/types"

// Rollup is the bottom-up aggregate of a node and all of its descendants
type Rollup struct {
	Total       int
	Completed   int
	HasCritical bool
}

// ProjectAggregate summarises one project's task tree
type ProjectAggregate struct {
	ProjectID            types.ProjectID
	ProjectName          string
	Kind                 types.Collection
	Rollup
	CompletionPercentage float64
	Open                 int
	Overdue              int
	CriticalTasks        int
}

// UserTask is a task flattened out of its tree, tagged with where it came from
type UserTask struct {
	Task        *Task
	ProjectID   types.ProjectID
	ProjectName string
	ProjectKind types.Collection
	ParentID    types.TaskID // empty for root tasks
	Depth       int
}

// UserTaskView is the "my tasks" view for a single user across projects
type UserTaskView struct {
	UserID           types.UserID
	Tasks            []UserTask
	Open             int
	Completed        int
	Overdue          []UserTask
	DueToday         []UserTask
	CriticalProjects []types.ProjectID
}
