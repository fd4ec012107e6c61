package events

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// ErrorCode represents document store error types.
type ErrorCode int

const (
	ErrStoreNotFound ErrorCode = iota
	ErrStorePermission
	ErrStoreUnavailable
	ErrConnectionRefused
)

// String returns a short name for the code
func (c ErrorCode) String() string {
	switch c {
	case ErrStoreNotFound:
		return "not_found"
	case ErrStorePermission:
		return "permission"
	case ErrConnectionRefused:
		return "connection_refused"
	default:
		return "unavailable"
	}
}

// StoreError is a structured document store failure for one collection.
type StoreError struct {
	Code       ErrorCode
	Collection types.Collection
	Message    string
	Hint       string
	Err        error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Collection != "" {
		msg = string(e.Collection) + ": " + msg
	}
	if e.Hint != "" {
		return msg + ". " + e.Hint
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ClassifyStoreError maps common errors to structured StoreError types.
// An error that already is a StoreError is returned as is.
func ClassifyStoreError(collection types.Collection, err error) *StoreError {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return se
	}

	if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
		return &StoreError{
			Code:       ErrStoreNotFound,
			Collection: collection,
			Message:    "Store file not found",
			Hint:       "Check store.sqlite_path in ~/.config/taskroll/config.yaml",
			Err:        err,
		}
	}

	if os.IsPermission(err) || errors.Is(err, os.ErrPermission) {
		return &StoreError{
			Code:       ErrStorePermission,
			Collection: collection,
			Message:    "Permission denied",
			Hint:       "Check ~/.taskroll/ permissions: chmod 700 ~/.taskroll/",
			Err:        err,
		}
	}

	var errno syscall.Errno
	var opErr *net.OpError
	if (errors.As(err, &errno) && errno == syscall.ECONNREFUSED) ||
		(errors.As(err, &opErr) && opErr.Op == "dial") {
		return &StoreError{
			Code:       ErrConnectionRefused,
			Collection: collection,
			Message:    "Connection refused",
			Hint:       "Check that the store is running and store.redis_url is correct",
			Err:        err,
		}
	}

	msg := "Store unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "Store timed out"
	}
	return &StoreError{
		Code:       ErrStoreUnavailable,
		Collection: collection,
		Message:    msg,
		Hint:       "Retrying in the background",
		Err:        err,
	}
}
