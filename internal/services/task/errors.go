package task

import "errors"

// Task-related errors
var (
	// Validation errors
	ErrEmptyTitle        = errors.New("task title cannot be empty")
	ErrTitleTooLong      = errors.New("task title cannot exceed 255 characters")
	ErrInvalidTaskID     = errors.New("invalid task ID")
	ErrInvalidProjectID  = errors.New("invalid project ID")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrDueBeforeStart    = errors.New("due date cannot be before start date")
	ErrInvalidAttachment = errors.New("attachment URL cannot be empty")

	// Business logic errors
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
)
