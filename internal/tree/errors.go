package tree

import (
	"errors"
	"fmt"

	"github.com/thenoetrevino/taskroll/internal/types"
)

var (
	// ErrCycle indicates a node reached twice during traversal, either through
	// a cycle or through a child shared by two parents
	ErrCycle = errors.New("task tree contains a cycle or shared node")

	// ErrTooDeep indicates traversal went past models.MaxTreeDepth
	ErrTooDeep = errors.New("task tree exceeds maximum depth")

	// ErrTaskNotFound indicates an edit targeted an id absent from the tree
	ErrTaskNotFound = errors.New("task not found")

	// ErrParentNotFound indicates an insert under an id absent from the tree
	ErrParentNotFound = errors.New("parent task not found")

	// ErrDuplicateTask indicates an insert whose id already exists in the tree
	ErrDuplicateTask = errors.New("task id already exists in tree")
)

// StructuralError is returned when a traversal fails closed
type StructuralError struct {
	NodeID types.TaskID
	Depth  int
	Reason error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at task %q (depth %d): %v", e.NodeID, e.Depth, e.Reason)
}

// Unwrap returns the underlying reason
func (e *StructuralError) Unwrap() error {
	return e.Reason
}
