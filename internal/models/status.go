package models

import "strings"

// Status is the workflow state of a task
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// AllStatuses lists statuses in workflow order
var AllStatuses = []Status{StatusToDo, StatusInProgress, StatusBlocked, StatusDone}

// statusAliases maps the spellings seen in stored documents onto canonical statuses
var statusAliases = map[string]Status{
	"todo":        StatusToDo,
	"to do":       StatusToDo,
	"to_do":       StatusToDo,
	"to-do":       StatusToDo,
	"open":        StatusToDo,
	"in_progress": StatusInProgress,
	"in progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"done":        StatusDone,
	"completed":   StatusDone,
	"complete":    StatusDone,
	"blocked":     StatusBlocked,
}

// ParseStatus maps a stored status string onto a Status.
// The second return value is false when the input is not recognised.
func ParseStatus(s string) (Status, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return status, ok
}

// Label returns the display form of the status
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	case StatusBlocked:
		return "Blocked"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the canonical statuses
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// statusTransitions is the allowed transition table.
// Leaving Done is a reopen; callers clear DoneDate when it happens.
var statusTransitions = map[Status][]Status{
	StatusToDo:       {StatusInProgress, StatusBlocked, StatusDone},
	StatusInProgress: {StatusDone, StatusBlocked, StatusToDo},
	StatusBlocked:    {StatusToDo, StatusInProgress},
	StatusDone:       {StatusToDo, StatusInProgress},
}

// CanTransition reports whether a task may move from s to next.
// Staying in the same status is always allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
