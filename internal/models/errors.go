package models

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors shared across the tree pipeline
var (
	// ErrInvalidRecord indicates a raw record that cannot become a task or project
	ErrInvalidRecord = errors.New("invalid record")

	// ErrMissingID indicates a record without an id
	ErrMissingID = errors.New("record has no id")

	// ErrMissingTitle indicates a task record without a title
	ErrMissingTitle = errors.New("record has no title")

	// ErrDuplicateID indicates a task id seen twice in one project
	ErrDuplicateID = errors.New("duplicate task id")

	// ErrTooDeep indicates nesting beyond MaxTreeDepth
	ErrTooDeep = errors.New("task nesting exceeds maximum depth")
)

// ValidationError describes a record dropped during normalization.
// Path is the chain of ids from the project down to the offending node.
type ValidationError struct {
	Path   []string
	Reason error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%v: %v", ErrInvalidRecord, e.Reason)
	}
	return fmt.Sprintf("%v at %v: %v", ErrInvalidRecord, e.Path, e.Reason)
}

// PathString joins the path with "/"
func (e *ValidationError) PathString() string {
	return strings.Join(e.Path, "/")
}

// Unwrap lets errors.Is match both ErrInvalidRecord and the specific reason
func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidRecord, e.Reason}
}
