// Package filter produces ancestor-preserving views of task trees
package filter

import (
	"strings"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// Predicate selects nodes by their own fields. Unset fields match
// everything; set fields are combined with AND.
type Predicate struct {
	// Text is matched case-insensitively as a substring of the title or
	// the critical issue. Blank text matches every node.
	Text string

	// Status, when set, must equal the node's status
	Status models.Status

	// AssigneeID, when set, must be among the node's assignees
	AssigneeID types.UserID
}

// IsEmpty reports whether the predicate matches every node
func (p Predicate) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == "" && p.Status == "" && p.AssigneeID == ""
}

// Matches reports whether the node's own fields satisfy the predicate
func (p Predicate) Matches(t *models.Task) bool {
	if p.Status != "" && t.Status != p.Status {
		return false
	}
	if p.AssigneeID != "" && !t.IsAssignedTo(p.AssigneeID) {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(p.Text))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.CriticalIssue), needle)
}

// Apply returns a new forest holding every node that matches the
// predicate plus the ancestors on the path to each match. Non-matching
// nodes without a matching descendant are pruned. Sibling order is kept
// and the input is not modified.
func Apply(roots []*models.Task, p Predicate) ([]*models.Task, error) {
	return tree.Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		if len(children) == 0 && !p.Matches(node) {
			return nil, false
		}
		cp := node.ShallowCopy()
		cp.Children = children
		return cp, true
	})
}
