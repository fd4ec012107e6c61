package models

import (
	"time"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// User is a team member reference stored on a project
type User struct {
	ID    types.UserID
	Name  string
	Email string
}

// Project is the top-level document of a watched collection.
// Kind records which collection the project was read from.
type Project struct {
	ID        types.ProjectID
	Name      string
	Kind      types.Collection
	OwnerID   types.UserID
	Team      []User
	StartDate time.Time
	EndDate   time.Time
	Status    string
	Tags      []string
	Tasks     []*Task
}

// HasMember reports whether user owns the project or is on its team
func (p *Project) HasMember(user types.UserID) bool {
	if user == "" {
		return false
	}
	if p.OwnerID == user {
		return true
	}
	for _, member := range p.Team {
		if member.ID == user {
			return true
		}
	}
	return false
}
