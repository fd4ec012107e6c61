package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/events"
	"github.com/thenoetrevino/taskroll/internal/models"
	projectservice "github.com/thenoetrevino/taskroll/internal/services/project"
	taskservice "github.com/thenoetrevino/taskroll/internal/services/task"
	"github.com/thenoetrevino/taskroll/internal/sorter"
	"github.com/thenoetrevino/taskroll/internal/tree"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Store errors, network errors, unexpected failures,
	// or any error that doesn't fit the specific categories below.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing required flags, invalid flag combinations,
	// or when the user needs to provide different arguments.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: Task not found, project not found, parent not found.
	ExitNotFound = 3

	// ExitDataErr indicates invalid or malformed data.
	// Use for: Invalid JSON or YAML input, undecodable documents,
	// or task trees that fail structural checks.
	ExitDataErr = 4

	// ExitValidation indicates a validation error.
	// Use for: Invalid status values, empty titles, bad dates,
	// disallowed status transitions.
	ExitValidation = 5
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	Err  error

	// Reported is set once the error has been written to the user
	Reported bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExitError) Unwrap() error {
	return e.Err
}

// UsageError wraps err with ExitUsage
func UsageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

var notFoundErrors = []error{
	docstore.ErrProjectNotFound,
	taskservice.ErrTaskNotFound,
	tree.ErrTaskNotFound,
	tree.ErrParentNotFound,
}

var validationErrors = []error{
	taskservice.ErrEmptyTitle,
	taskservice.ErrTitleTooLong,
	taskservice.ErrInvalidTaskID,
	taskservice.ErrInvalidProjectID,
	taskservice.ErrInvalidCollection,
	taskservice.ErrInvalidStatus,
	taskservice.ErrDueBeforeStart,
	taskservice.ErrInvalidAttachment,
	taskservice.ErrInvalidTransition,
	projectservice.ErrInvalidProjectID,
	projectservice.ErrInvalidCollection,
	projectservice.ErrNameTooLong,
	projectservice.ErrProjectHasTasks,
	projectservice.ErrDuplicateImport,
	tree.ErrDuplicateTask,
	sorter.ErrUnknownField,
}

var dataErrors = []error{
	docstore.ErrInvalidDocument,
	projectservice.ErrNoDocuments,
	tree.ErrCycle,
	tree.ErrTooDeep,
}

// ExitCodeFor maps an error onto the exit code table
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return ExitNotFound
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return ExitValidation
		}
	}
	for _, target := range dataErrors {
		if errors.Is(err, target) {
			return ExitDataErr
		}
	}
	var verr *models.ValidationError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &verr) || errors.As(err, &syntaxErr) {
		return ExitDataErr
	}
	return ExitError
}

// ErrorCode returns the machine-readable code used in JSON error output
func ErrorCode(err error) string {
	var storeErr *events.StoreError
	if errors.As(err, &storeErr) {
		return "STORE_" + strings.ToUpper(storeErr.Code.String())
	}
	switch ExitCodeFor(err) {
	case ExitUsage:
		return "USAGE_ERROR"
	case ExitNotFound:
		return "NOT_FOUND"
	case ExitDataErr:
		return "INVALID_DATA"
	case ExitValidation:
		return "VALIDATION_ERROR"
	}
	return "ERROR"
}
