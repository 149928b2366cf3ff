package accesskit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewError tests wrapping a sentinel with context
func TestNewError(t *testing.T) {
	err := NewError(ErrRoleNotFound, "unknown role id")

	assert.Equal(t, "accesskit: role not found: unknown role id", err.Error())
	assert.True(t, errors.Is(err, ErrRoleNotFound))
	assert.False(t, errors.Is(err, ErrAssignmentNotFound))
	assert.Equal(t, ErrRoleNotFound, err.Unwrap())
}

// TestErrorWithoutMessage tests the bare sentinel rendering
func TestErrorWithoutMessage(t *testing.T) {
	err := NewError(ErrDecisionUnavailable, "")
	assert.Equal(t, ErrDecisionUnavailable.Error(), err.Error())
}

// TestErrorChaining tests the fluent context setters
func TestErrorChaining(t *testing.T) {
	err := NewError(ErrDuplicateAssignment, "already assigned").
		WithUser("user-1").
		WithRole("role-1").
		WithResource("children", ActionRead).
		WithScope("org-1", "group-1").
		WithActor("admin-1")

	assert.Equal(t, "user-1", err.UserID)
	assert.Equal(t, "role-1", err.RoleID)
	assert.Equal(t, "children", err.Resource)
	assert.Equal(t, ActionRead, err.Action)
	assert.Equal(t, "org-1", err.OrganizationID)
	assert.Equal(t, "group-1", err.GroupID)
	assert.Equal(t, "admin-1", err.ActorID)

	// Chaining preserves the sentinel
	assert.True(t, errors.Is(err, ErrDuplicateAssignment))
}

// TestErrorThroughWrapping tests errors.Is through fmt.Errorf %w chains
func TestErrorThroughWrapping(t *testing.T) {
	inner := NewError(ErrAssignmentNotFound, "no matching grant").WithUser("user-1")
	wrapped := fmt.Errorf("revoke failed: %w", inner)

	assert.True(t, errors.Is(wrapped, ErrAssignmentNotFound))

	var ae *Error
	assert.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, "user-1", ae.UserID)
}

// TestErrorHelpers tests the Is* convenience checks
func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
		check    func(error) bool
	}{
		{"invalid request", ErrInvalidRequest, IsInvalidRequest},
		{"role not found", ErrRoleNotFound, IsRoleNotFound},
		{"assignment not found", ErrAssignmentNotFound, IsAssignmentNotFound},
		{"duplicate assignment", ErrDuplicateAssignment, IsDuplicateAssignment},
		{"decision unavailable", ErrDecisionUnavailable, IsDecisionUnavailable},
		{"audit write failed", ErrAuditWriteFailed, IsAuditWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.sentinel))
			assert.True(t, tt.check(NewError(tt.sentinel, "context")))
			assert.False(t, tt.check(errors.New("something else")))
			assert.False(t, tt.check(nil))
		})
	}
}
