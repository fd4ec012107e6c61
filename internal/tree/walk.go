// Package tree holds the traversal and edit primitives shared by the
// filter, sort and aggregation engines. All traversals are iterative and
// guarded against cycles, shared nodes and runaway depth.
package tree

import (
	"github.com/thenoetrevino/taskroll/internal/models"
)

// VisitFunc is called once per node in pre-order. parent is nil for roots.
type VisitFunc func(node, parent *models.Task, depth int) error

// RebuildFunc is called once per node in post-order with the already
// rebuilt children of that node. It returns the replacement node and
// whether to keep it.
type RebuildFunc func(node *models.Task, children []*models.Task) (*models.Task, bool)

// guard tracks visited nodes for a single traversal
type guard struct {
	visited map[*models.Task]struct{}
}

func newGuard() *guard {
	return &guard{visited: make(map[*models.Task]struct{})}
}

// enter marks node as visited, failing on a revisit or excessive depth
func (g *guard) enter(node *models.Task, depth int) error {
	if depth > models.MaxTreeDepth {
		return &StructuralError{NodeID: node.ID, Depth: depth, Reason: ErrTooDeep}
	}
	if _, seen := g.visited[node]; seen {
		return &StructuralError{NodeID: node.ID, Depth: depth, Reason: ErrCycle}
	}
	g.visited[node] = struct{}{}
	return nil
}

type walkItem struct {
	node   *models.Task
	parent *models.Task
	depth  int
}

// Walk visits every node depth-first in pre-order, siblings in order.
// It stops at the first error returned by fn or by the traversal guard.
func Walk(roots []*models.Task, fn VisitFunc) error {
	g := newGuard()
	stack := make([]walkItem, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i] != nil {
			stack = append(stack, walkItem{node: roots[i]})
		}
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := g.enter(item.node, item.depth); err != nil {
			return err
		}
		if err := fn(item.node, item.parent, item.depth); err != nil {
			return err
		}

		children := item.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] != nil {
				stack = append(stack, walkItem{node: children[i], parent: item.node, depth: item.depth + 1})
			}
		}
	}
	return nil
}

type rebuildFrame struct {
	node  *models.Task
	depth int
	next  int
	kids  []*models.Task
}

// Rebuild produces a new forest by post-order traversal. Children are
// rebuilt before their parent, and fn decides what each node becomes.
// The input forest is never modified.
func Rebuild(roots []*models.Task, fn RebuildFunc) ([]*models.Task, error) {
	g := newGuard()
	out := make([]*models.Task, 0, len(roots))

	for _, root := range roots {
		if root == nil {
			continue
		}
		if err := g.enter(root, 0); err != nil {
			return nil, err
		}

		stack := []*rebuildFrame{{node: root}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]

			if top.next < len(top.node.Children) {
				child := top.node.Children[top.next]
				top.next++
				if child == nil {
					continue
				}
				if err := g.enter(child, top.depth+1); err != nil {
					return nil, err
				}
				stack = append(stack, &rebuildFrame{node: child, depth: top.depth + 1})
				continue
			}

			stack = stack[:len(stack)-1]
			rebuilt, keep := fn(top.node, top.kids)
			if !keep {
				continue
			}
			if len(stack) == 0 {
				out = append(out, rebuilt)
			} else {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, rebuilt)
			}
		}
	}
	return out, nil
}

// Clone deep-copies a forest
func Clone(roots []*models.Task) ([]*models.Task, error) {
	return Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		cp := node.ShallowCopy()
		cp.Children = children
		return cp, true
	})
}

// Count returns the number of nodes in the forest
func Count(roots []*models.Task) (int, error) {
	n := 0
	err := Walk(roots, func(*models.Task, *models.Task, int) error {
		n++
		return nil
	})
	return n, err
}
