package project

import "errors"

// Domain errors for project service
var (
	// Validation errors
	ErrInvalidProjectID  = errors.New("invalid project ID")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrNameTooLong       = errors.New("project name cannot exceed 255 characters")
	ErrNoDocuments       = errors.New("no project documents to import")

	// Business logic errors
	ErrProjectHasTasks = errors.New("cannot delete project with tasks")
	ErrDuplicateImport = errors.New("project appears more than once in import")
)
