package models

import (
	"slices"
	"time"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// Attachment is a named link stored on a task
type Attachment struct {
	Name string
	URL  string
}

// Task is a node in a project's task tree.
// Children are owned exclusively by their parent; a zero time.Time means the date is unset.
type Task struct {
	ID            types.TaskID
	Title         string
	AssigneeIDs   []types.UserID
	StartDate     time.Time
	DueDate       time.Time
	Status        Status
	DoneDate      time.Time
	CriticalIssue string
	Attachments   []Attachment
	Children      []*Task
}

// IsDone reports whether the task is completed
func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

// HasCriticalIssue reports whether a critical issue is flagged on the task itself
func (t *Task) HasCriticalIssue() bool {
	return t.CriticalIssue != ""
}

// IsAssignedTo reports whether user is one of the task's assignees
func (t *Task) IsAssignedTo(user types.UserID) bool {
	return slices.Contains(t.AssigneeIDs, user)
}

// IsOverdue reports whether the task is open and its due date is before now
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsDone() && !t.DueDate.IsZero() && t.DueDate.Before(now)
}

// IsDueOn reports whether the open task is due on the same calendar day as day,
// using day's location
func (t *Task) IsDueOn(day time.Time) bool {
	if t.IsDone() || t.DueDate.IsZero() {
		return false
	}
	dy, dm, dd := t.DueDate.In(day.Location()).Date()
	y, m, d := day.Date()
	return dy == y && dm == m && dd == d
}

// ShallowCopy copies the task's own fields; Children is left nil
func (t *Task) ShallowCopy() *Task {
	cp := *t
	cp.AssigneeIDs = slices.Clone(t.AssigneeIDs)
	cp.Attachments = slices.Clone(t.Attachments)
	cp.Children = nil
	return &cp
}
