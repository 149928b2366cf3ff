package accesskit

import (
	"time"

	"github.com/uptrace/bun"
)

// Action is one of the closed set of operations a permission can grant.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Valid reports whether the action is one of the known values.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionManage:
		return true
	}
	return false
}

// Satisfies reports whether a granted action covers a requested one.
// "manage" on a resource covers read, write and delete on that resource.
func (a Action) Satisfies(requested Action) bool {
	return a == requested || a == ActionManage
}

// RoleType is one of the closed set of role names the portal ships with.
type RoleType string

const (
	RoleDirector  RoleType = "director"
	RoleTeacher   RoleType = "teacher"
	RoleAssistant RoleType = "assistant"
	RoleStaff     RoleType = "staff"
	RoleParent    RoleType = "parent"
)

// rolePrecedence orders role names for MatchedRole reporting only.
// It never changes an allow/deny outcome. Lower is stronger.
var rolePrecedence = map[string]int{
	string(RoleDirector):  0,
	string(RoleTeacher):   1,
	string(RoleAssistant): 2,
	string(RoleStaff):     3,
	string(RoleParent):    4,
}

// precedenceOf returns the precedence rank for a role name.
// Names outside the closed set sort after all known ones.
func precedenceOf(name string) int {
	if p, ok := rolePrecedence[name]; ok {
		return p
	}
	return len(rolePrecedence)
}

// Role is a named set of permissions.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          string `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name        string `bun:"name,notnull"` // Machine key, unique among active roles
	DisplayName string `bun:"display_name,notnull"`
	Description string `bun:"description"`

	// System roles ship with the product and cannot be deleted.
	IsSystemRole bool `bun:"is_system_role,notnull,default:false"`
	IsActive     bool `bun:"is_active,notnull,default:true"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Permissions []Permission `bun:"rel:has-many,join:id=role_id"`
}

// Permission grants one action on one resource, optionally gated by conditions.
type Permission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	ID       string `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	RoleID   string `bun:"role_id,notnull,type:uuid"`
	Resource string `bun:"resource,notnull"` // Opaque resource key, e.g. "children"
	Action   Action `bun:"action,notnull"`

	// Conditions is an opaque predicate map, e.g. {"ownChildOnly": true}.
	// Empty means the permission is unconditional.
	Conditions map[string]any `bun:"conditions,type:jsonb"`

	// IsActive soft-disables this permission independently of its role.
	IsActive bool `bun:"is_active,notnull,default:true"`

	// Position preserves the declaration order of a role's permissions.
	Position int `bun:"position,notnull,default:0"`
}

// UserRole is one grant of a role to a user, optionally scoped to an
// organization and/or a group within it. Revocation soft-deletes the row:
// assignments are never hard-deleted so the audit trail stays complete.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	ID     string `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID string `bun:"user_id,notnull"`
	RoleID string `bun:"role_id,notnull,type:uuid"`

	// Empty organization/group means the grant is global.
	OrganizationID string `bun:"organization_id"`
	GroupID        string `bun:"group_id"`

	ExpiresAt  time.Time `bun:"expires_at,nullzero"`
	AssignedBy string    `bun:"assigned_by"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
	IsActive   bool      `bun:"is_active,notnull,default:true"`
}

// ValidAt reports whether the assignment is currently valid: active and
// either without expiry or expiring after now.
func (ur *UserRole) ValidAt(now time.Time) bool {
	if !ur.IsActive {
		return false
	}
	return ur.ExpiresAt.IsZero() || ur.ExpiresAt.After(now)
}

// MatchesScope reports whether the assignment's scope is compatible with a
// request scope. An unset assignment field matches anything; a set field
// must equal the request's value. An org-scoped assignment therefore never
// satisfies a request for a different organization, and a group-scoped one
// never satisfies a different group in the same organization.
func (ur *UserRole) MatchesScope(organizationID, groupID string) bool {
	if ur.OrganizationID != "" && ur.OrganizationID != organizationID {
		return false
	}
	if ur.GroupID != "" && ur.GroupID != groupID {
		return false
	}
	return true
}

// AuditAction is the type of event recorded in the audit log.
type AuditAction string

const (
	AuditRoleAssigned      AuditAction = "role_assigned"
	AuditRoleRevoked       AuditAction = "role_revoked"
	AuditPermissionGranted AuditAction = "permission_granted"
	AuditPermissionRevoked AuditAction = "permission_revoked"
	AuditAccessGranted     AuditAction = "access_granted"
	AuditAccessDenied      AuditAction = "access_denied"
	AuditLogin             AuditAction = "login"
	AuditLogout            AuditAction = "logout"
	AuditDataModified      AuditAction = "data_modified"
	AuditDataDeleted       AuditAction = "data_deleted"
)

// AuditRecord is one append-only entry in the audit log. The engine never
// mutates or deletes records; retention is an external concern.
type AuditRecord struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID string `bun:"id,pk,type:uuid,default:gen_random_uuid()"`

	// UserID is the actor, not necessarily the affected principal.
	UserID string      `bun:"user_id,notnull"`
	Action AuditAction `bun:"action,notnull"`

	ResourceType string `bun:"resource_type,notnull"`
	ResourceID   string `bun:"resource_id"`

	Details map[string]any `bun:"details,type:jsonb"`

	IPAddress string    `bun:"ip_address"`
	UserAgent string    `bun:"user_agent"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditEntry is used to create new audit records.
type AuditEntry struct {
	UserID       string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Details      map[string]any
	IPAddress    string
	UserAgent    string
}

// ToModel converts an AuditEntry to an AuditRecord ready for insertion.
func (e *AuditEntry) ToModel() *AuditRecord {
	return &AuditRecord{
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		CreatedAt:    time.Now(),
	}
}

// Denial reasons reported on Decision.Reason.
const (
	ReasonNoActiveRoles        = "no_active_roles"
	ReasonNoMatchingPermission = "no_matching_permission"
)

// Decision is the transient result of a permission check. It is produced
// per request and never persisted as an entity; at most it is summarized
// into an access_granted/access_denied audit record.
type Decision struct {
	Allowed     bool   `json:"allowed"`
	MatchedRole string `json:"matched_role,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// RequestContext carries the caller-side context a check is evaluated in:
// the scope the request targets and the attributes condition predicates
// are matched against.
type RequestContext struct {
	OrganizationID string         `json:"organization_id,omitempty"`
	GroupID        string         `json:"group_id,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// PermissionCheckRequest asks whether a user may perform an action on a resource.
type PermissionCheckRequest struct {
	UserID   string         `json:"user_id"`
	Resource string         `json:"resource"`
	Action   Action         `json:"action"`
	Context  RequestContext `json:"context"`
}

// PermissionCheckResponse echoes the request alongside the decision.
type PermissionCheckResponse struct {
	Allowed     bool   `json:"allowed"`
	UserID      string `json:"user_id"`
	Resource    string `json:"resource"`
	Action      Action `json:"action"`
	MatchedRole string `json:"matched_role,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AssignRoleRequest grants a role to a user, optionally scoped and expiring.
type AssignRoleRequest struct {
	UserID         string    `json:"user_id"`
	RoleID         string    `json:"role_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	GroupID        string    `json:"group_id,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitempty"`
}

// RevokeRoleRequest removes a grant identified by its (user, role, scope) tuple.
type RevokeRoleRequest struct {
	UserID         string `json:"user_id"`
	RoleID         string `json:"role_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	GroupID        string `json:"group_id,omitempty"`
}

// UserPermissionsResponse is the full aggregated view for a user, used by
// administrative surfaces.
type UserPermissionsResponse struct {
	UserID      string       `json:"user_id"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}
