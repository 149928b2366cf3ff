package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection.
type Database interface {
	dbkit.IDB
}

// PermissionChecker is the decision surface gating callers depend on.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, req PermissionCheckRequest) (*PermissionCheckResponse, error)
	HasRole(ctx context.Context, userID string, allowed []RoleType, scope *RequestContext) (bool, error)
}

// AssignmentMutator is the mutation surface used by administrative APIs.
type AssignmentMutator interface {
	AssignRole(ctx context.Context, req AssignRoleRequest) (*UserRole, error)
	RevokeRole(ctx context.Context, req RevokeRoleRequest) error
}

// AuditReader is the read-only audit query surface.
type AuditReader interface {
	GetAuditLog(ctx context.Context, filter AuditFilter) ([]AuditRecord, error)
}
