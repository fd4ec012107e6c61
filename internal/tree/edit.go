package tree

import (
	"errors"
	"slices"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

var errStop = errors.New("stop walk")

// Find returns the node with the given id and its parent (nil for roots)
func Find(roots []*models.Task, id types.TaskID) (node, parent *models.Task, err error) {
	err = Walk(roots, func(n, p *models.Task, _ int) error {
		if n.ID == id {
			node, parent = n, p
			return errStop
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return node, parent, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return nil, nil, ErrTaskNotFound
}

// Insert returns a copy of the forest with task appended as the last child
// of parentID, or as the last root when parentID is empty
func Insert(roots []*models.Task, parentID types.TaskID, task *models.Task) ([]*models.Task, error) {
	out, err := Clone(roots)
	if err != nil {
		return nil, err
	}
	if _, _, err := Find(out, task.ID); err == nil {
		return nil, ErrDuplicateTask
	}
	added, err := Clone([]*models.Task{task})
	if err != nil {
		return nil, err
	}

	if parentID == "" {
		return append(out, added[0]), nil
	}

	parent, _, err := Find(out, parentID)
	if errors.Is(err, ErrTaskNotFound) {
		return nil, ErrParentNotFound
	}
	if err != nil {
		return nil, err
	}
	parent.Children = append(parent.Children, added[0])
	return out, nil
}

// Replace returns a copy of the forest with the node sharing task's id
// replaced wholesale. When the replacement carries no children the
// existing subtree is kept.
func Replace(roots []*models.Task, task *models.Task) ([]*models.Task, error) {
	replacement, err := Clone([]*models.Task{task})
	if err != nil {
		return nil, err
	}
	found := false
	out, err := Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		if node.ID == task.ID && !found {
			found = true
			cp := replacement[0]
			if len(cp.Children) == 0 {
				cp.Children = children
			}
			return cp, true
		}
		cp := node.ShallowCopy()
		cp.Children = children
		return cp, true
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTaskNotFound
	}
	return out, nil
}

// Remove returns a copy of the forest without the node and its subtree
func Remove(roots []*models.Task, id types.TaskID) ([]*models.Task, error) {
	found := false
	out, err := Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		if node.ID == id {
			found = true
			return nil, false
		}
		cp := node.ShallowCopy()
		cp.Children = children
		return cp, true
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTaskNotFound
	}
	return slices.Clip(out), nil
}
