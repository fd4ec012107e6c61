package docstore

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidDocument = errors.New("invalid project document")
	ErrConflict        = errors.New("project changed concurrently, retries exhausted")
	ErrNilTask         = errors.New("task is required")
)
