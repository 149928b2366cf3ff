package accesskit

import (
	"sync"
)

// Registry holds the catalog of roles and their attached permissions.
// Lookups are served from an immutable in-memory snapshot that is loaded
// from the roles tables (Service.ReloadRoles) or seeded from fluent
// definitions (Service.SyncRoles). Pure data; no behavior beyond lookup.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Role
	byName map[string]*Role
	defs   []*RoleDefinition
}

// NewRegistry creates an empty role registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Role),
		byName: make(map[string]*Role),
	}
}

// DefineRole starts defining a role for seeding. Returns a RoleDefinition
// builder for fluent configuration.
//
// Example:
//
//	registry.DefineRole("director").
//	    DisplayName("Director").System().
//	    Permission("children", accesskit.ActionManage).
//	    Permission("invoices", accesskit.ActionManage).
//	    DefineRole("teacher").
//	    DisplayName("Teacher").System().
//	    Permission("children", accesskit.ActionRead).
//	    Permission("children", accesskit.ActionWrite)
func (r *Registry) DefineRole(name string) *RoleDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	def := &RoleDefinition{
		registry:    r,
		name:        name,
		displayName: name,
	}
	r.defs = append(r.defs, def)
	return def
}

// Definitions returns the seeded role definitions in declaration order.
func (r *Registry) Definitions() []*RoleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs
}

// Load replaces the lookup snapshot with the given roles. Each role's
// Permissions slice is kept in its stored order.
func (r *Registry) Load(roles []Role) {
	byID := make(map[string]*Role, len(roles))
	byName := make(map[string]*Role, len(roles))
	for i := range roles {
		role := &roles[i]
		byID[role.ID] = role
		if role.IsActive {
			byName[role.Name] = role
		}
	}

	r.mu.Lock()
	r.byID = byID
	r.byName = byName
	r.mu.Unlock()
}

// GetRole returns the role for an id. An unknown id yields ErrRoleNotFound;
// this is a normal outcome (stale assignments may reference deleted roles)
// and must not be fatal to the caller.
func (r *Registry) GetRole(roleID string) (*Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.byID[roleID]
	if !ok {
		return nil, NewError(ErrRoleNotFound, "unknown role id").WithRole(roleID)
	}
	return role, nil
}

// GetRoleByName returns the active role with the given machine key.
// Role names are unique among active roles.
func (r *Registry) GetRoleByName(name string) (*Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.byName[name]
	if !ok {
		return nil, NewError(ErrRoleNotFound, "unknown role name: "+name)
	}
	return role, nil
}

// ListPermissions returns the active permissions of an active role, in
// declaration order. An inactive or unknown role yields an empty set
// regardless of its own permissions' flags.
func (r *Registry) ListPermissions(roleID string) []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.byID[roleID]
	if !ok || !role.IsActive {
		return nil
	}

	perms := make([]Permission, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		if p.IsActive {
			perms = append(perms, p)
		}
	}
	return perms
}

// RoleNames returns all active role names in the snapshot.
func (r *Registry) RoleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// RoleDefinition is the fluent builder for a seeded role.
type RoleDefinition struct {
	registry    *Registry
	name        string
	displayName string
	description string
	system      bool
	perms       []permissionDef
}

type permissionDef struct {
	resource   string
	action     Action
	conditions map[string]any
}

// DisplayName sets the human-readable role name.
func (d *RoleDefinition) DisplayName(name string) *RoleDefinition {
	d.displayName = name
	return d
}

// Description sets the role description.
func (d *RoleDefinition) Description(desc string) *RoleDefinition {
	d.description = desc
	return d
}

// System marks the role as built-in. System roles cannot be deleted.
func (d *RoleDefinition) System() *RoleDefinition {
	d.system = true
	return d
}

// Permission grants an unconditional action on a resource.
func (d *RoleDefinition) Permission(resource string, action Action) *RoleDefinition {
	d.perms = append(d.perms, permissionDef{resource: resource, action: action})
	return d
}

// ConditionalPermission grants an action on a resource gated by a condition
// predicate, e.g. {"ownChildOnly": true}.
func (d *RoleDefinition) ConditionalPermission(resource string, action Action, conditions map[string]any) *RoleDefinition {
	d.perms = append(d.perms, permissionDef{resource: resource, action: action, conditions: conditions})
	return d
}

// DefineRole continues defining roles on the registry (fluent API).
func (d *RoleDefinition) DefineRole(name string) *RoleDefinition {
	return d.registry.DefineRole(name)
}

// Name returns the role's machine key.
func (d *RoleDefinition) Name() string {
	return d.name
}

// DefaultRegistry returns a registry seeded with the portal's built-in
// roles. Directors manage everything; teachers and assistants work with
// the children and reporting surfaces; parents only see their own child's
// records through the ownChildOnly condition.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.DefineRole(string(RoleDirector)).
		DisplayName("Director").System().
		Permission("children", ActionManage).
		Permission("invoices", ActionManage).
		Permission("reports", ActionManage).
		Permission("staff", ActionManage).
		Permission("agreements", ActionManage).
		DefineRole(string(RoleTeacher)).
		DisplayName("Teacher").System().
		Permission("children", ActionRead).
		Permission("children", ActionWrite).
		Permission("reports", ActionRead).
		Permission("reports", ActionWrite).
		Permission("milestones", ActionManage).
		DefineRole(string(RoleAssistant)).
		DisplayName("Assistant").System().
		Permission("children", ActionRead).
		Permission("reports", ActionRead).
		Permission("milestones", ActionRead).
		DefineRole(string(RoleStaff)).
		DisplayName("Staff").System().
		Permission("children", ActionRead).
		DefineRole(string(RoleParent)).
		DisplayName("Parent").System().
		ConditionalPermission("children", ActionRead, map[string]any{"ownChildOnly": true}).
		ConditionalPermission("reports", ActionRead, map[string]any{"ownChildOnly": true}).
		ConditionalPermission("invoices", ActionRead, map[string]any{"ownChildOnly": true})
	return r
}
