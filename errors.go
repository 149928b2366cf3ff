package accesskit

import (
	"errors"
	"fmt"
)

// Sentinel errors for AccessKit operations.
var (
	// ErrInvalidRequest is returned for malformed identifiers or actions.
	// Requests failing this validation never reach the store.
	ErrInvalidRequest = errors.New("accesskit: invalid request")

	// ErrRoleNotFound is returned when a role id or name is unknown. For
	// decision purposes this is expected (a stale assignment may point at
	// a deleted role) and the engine treats such an assignment as
	// contributing zero permissions.
	ErrRoleNotFound = errors.New("accesskit: role not found")

	// ErrAssignmentNotFound is returned by Revoke when no currently-valid
	// assignment matches the given (user, role, scope) tuple.
	ErrAssignmentNotFound = errors.New("accesskit: assignment not found")

	// ErrDuplicateAssignment is returned by Assign when an identical
	// currently-valid assignment already exists.
	ErrDuplicateAssignment = errors.New("accesskit: assignment already exists")

	// ErrDecisionUnavailable is returned when a store round-trip fails and
	// a decision cannot be computed. It is distinct from a policy denial so
	// that callers can fail closed without mistaking an outage for a deny.
	ErrDecisionUnavailable = errors.New("accesskit: decision unavailable")

	// ErrAuditWriteFailed is returned when the audit append fails. The
	// mutation that triggered the audit fails with it.
	ErrAuditWriteFailed = errors.New("accesskit: audit write failed")

	// ErrNoActorID is returned when a mutation is attempted without an
	// actor ID in context for the audit trail.
	ErrNoActorID = errors.New("accesskit: no actor ID in context")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err            error  // Underlying sentinel error
	Message        string // Additional context
	UserID         string // Principal involved (if applicable)
	RoleID         string // Role involved (if applicable)
	Resource       string // Resource involved (if applicable)
	Action         Action // Action involved (if applicable)
	OrganizationID string // Organization scope (if applicable)
	GroupID        string // Group scope (if applicable)
	ActorID        string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithUser adds the affected principal to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(roleID string) *Error {
	e.RoleID = roleID
	return e
}

// WithResource adds the requested resource and action to the error.
func (e *Error) WithResource(resource string, action Action) *Error {
	e.Resource = resource
	e.Action = action
	return e
}

// WithScope adds scope information to the error.
func (e *Error) WithScope(organizationID, groupID string) *Error {
	e.OrganizationID = organizationID
	e.GroupID = groupID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsInvalidRequest checks if an error is a request validation error.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsRoleNotFound checks if an error is due to an unknown role.
func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

// IsAssignmentNotFound checks if an error is due to a missing assignment.
func IsAssignmentNotFound(err error) bool {
	return errors.Is(err, ErrAssignmentNotFound)
}

// IsDuplicateAssignment checks if an error is a duplicate-assignment conflict.
func IsDuplicateAssignment(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment)
}

// IsDecisionUnavailable checks if an error means the decision could not be
// determined. Gating surfaces should present this as "access could not be
// determined", distinct from "access denied".
func IsDecisionUnavailable(err error) bool {
	return errors.Is(err, ErrDecisionUnavailable)
}

// IsAuditWriteFailed checks if an error is a failed audit append.
func IsAuditWriteFailed(err error) bool {
	return errors.Is(err, ErrAuditWriteFailed)
}
