package accesskit

// Checker answers permission and role checks for one user from a snapshot
// of their currently-valid assignments. It is typically created once per
// request by the Service (or its middleware) and stored in context, so a
// handler making several checks pays for one assignment load.
//
// The snapshot does not observe mutations made after it was taken.
type Checker struct {
	userID      string
	assignments []UserRole
	registry    *Registry
	evaluator   *ConditionEvaluator
}

// NewChecker creates a Checker over a set of currently-valid assignments.
func NewChecker(userID string, assignments []UserRole, registry *Registry, evaluator *ConditionEvaluator) *Checker {
	return &Checker{
		userID:      userID,
		assignments: assignments,
		registry:    registry,
		evaluator:   evaluator,
	}
}

// UserID returns the user ID this checker is for.
func (c *Checker) UserID() string {
	return c.userID
}

// Decide runs the full decision algorithm against the snapshot.
func (c *Checker) Decide(resource string, action Action, rc RequestContext) Decision {
	return decide(c.assignments, c.registry, c.evaluator, resource, action, rc)
}

// Can reports whether the user may perform an action on a resource.
//
// Example:
//
//	if checker.Can("invoices", accesskit.ActionWrite, rc) {
//	    // User can edit invoices in this context
//	}
func (c *Checker) Can(resource string, action Action, rc RequestContext) bool {
	return c.Decide(resource, action, rc).Allowed
}

// HasAnyRole reports whether any scope-matched assignment carries one of
// the given role names. Pure membership test; permissions are not consulted.
func (c *Checker) HasAnyRole(roles []RoleType, rc RequestContext) bool {
	for _, name := range c.RoleNames(rc) {
		for _, want := range roles {
			if name == string(want) {
				return true
			}
		}
	}
	return false
}

// RoleNames returns the active role names of the scope-matched assignments.
func (c *Checker) RoleNames(rc RequestContext) []string {
	var names []string
	seen := make(map[string]bool)
	for _, a := range c.assignments {
		if !a.MatchesScope(rc.OrganizationID, rc.GroupID) {
			continue
		}
		role, err := c.registry.GetRole(a.RoleID)
		if err != nil || !role.IsActive || seen[role.Name] {
			continue
		}
		seen[role.Name] = true
		names = append(names, role.Name)
	}
	return names
}

// IsEmpty returns true if the snapshot holds no assignments at all.
func (c *Checker) IsEmpty() bool {
	return len(c.assignments) == 0
}
