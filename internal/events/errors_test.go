package events

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestClassifyStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"missing file", fmt.Errorf("open db: %w", os.ErrNotExist), ErrStoreNotFound},
		{"permission", &os.PathError{Op: "open", Path: "/x", Err: os.ErrPermission}, ErrStorePermission},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ErrConnectionRefused},
		{"dial op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route")}, ErrConnectionRefused},
		{"timeout", context.DeadlineExceeded, ErrStoreUnavailable},
		{"anything else", errors.New("boom"), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := ClassifyStoreError("projects", tt.err)
			if se == nil {
				t.Fatal("Expected a StoreError, got nil")
			}
			if se.Code != tt.want {
				t.Errorf("Expected code %s, got %s", tt.want, se.Code)
			}
			if se.Collection != "projects" {
				t.Errorf("Expected collection projects, got %s", se.Collection)
			}
			if !errors.Is(se, tt.err) {
				t.Errorf("Expected StoreError to wrap %v", tt.err)
			}
		})
	}
}

func TestClassifyStoreError_NilAndPassthrough(t *testing.T) {
	if se := ClassifyStoreError("projects", nil); se != nil {
		t.Errorf("Expected nil for nil error, got %v", se)
	}

	orig := &StoreError{Code: ErrStorePermission, Collection: "initiatives", Message: "denied"}
	wrapped := fmt.Errorf("subscribe: %w", orig)
	if se := ClassifyStoreError("projects", wrapped); se != orig {
		t.Errorf("Expected existing StoreError to pass through, got %v", se)
	}
}

func TestStoreError_Error(t *testing.T) {
	se := &StoreError{Collection: "projects", Message: "Connection refused", Hint: "Check redis"}
	want := "projects: Connection refused. Check redis"
	if se.Error() != want {
		t.Errorf("Expected %q, got %q", want, se.Error())
	}

	bare := &StoreError{Message: "Store unavailable"}
	if bare.Error() != "Store unavailable" {
		t.Errorf("Expected bare message, got %q", bare.Error())
	}
}
