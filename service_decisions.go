package accesskit

import (
	"context"

	"go.uber.org/zap"
)

// ============================================================================
// DECISION ENGINE
// ============================================================================

// decide runs the decision algorithm over a set of currently-valid
// assignments. Assignments whose scope is incompatible with the request are
// ignored; if none remain the denial reason is no_active_roles. Permissions
// survive when they target the requested resource, their action covers the
// requested one (manage implies read, write and delete) and their condition
// predicate holds. Grants combine as a logical OR across roles: a failing
// condition on one role never vetoes another role's grant. MatchedRole
// reports the strongest surviving role by the fixed precedence order;
// precedence never changes the allow/deny outcome.
func decide(assignments []UserRole, registry *Registry, evaluator *ConditionEvaluator, resource string, action Action, rc RequestContext) Decision {
	scoped := 0
	best := ""
	for _, a := range assignments {
		if !a.MatchesScope(rc.OrganizationID, rc.GroupID) {
			continue
		}
		scoped++

		role, err := registry.GetRole(a.RoleID)
		if err != nil || !role.IsActive {
			// Stale assignment referencing a deleted or disabled role:
			// contributes zero permissions.
			continue
		}

		for _, perm := range registry.ListPermissions(role.ID) {
			if perm.Resource != resource || !perm.Action.Satisfies(action) {
				continue
			}
			if !evaluator.Evaluate(perm.Conditions, rc) {
				continue
			}
			if best == "" || precedenceOf(role.Name) < precedenceOf(best) {
				best = role.Name
			}
			break
		}
	}

	if scoped == 0 {
		return Decision{Allowed: false, Reason: ReasonNoActiveRoles}
	}
	if best != "" {
		return Decision{Allowed: true, MatchedRole: best}
	}
	return Decision{Allowed: false, Reason: ReasonNoMatchingPermission}
}

// CheckPermission decides whether a user may perform an action on a
// resource in the given context.
//
// Structural problems (empty identifiers, unknown action) are rejected as
// ErrInvalidRequest before touching the store. Absence of data is not an
// error: it is a normal allowed=false decision with a reason. A store
// failure surfaces as ErrDecisionUnavailable, never as a silent denial, so
// callers can distinguish policy denials from outages and fail closed.
//
// Decisions are memoized in the configured cache; cache hits skip both the
// store and decision auditing.
func (s *Service) CheckPermission(ctx context.Context, req PermissionCheckRequest) (*PermissionCheckResponse, error) {
	if err := validateIdentifier("user id", req.UserID); err != nil {
		return nil, err
	}
	if err := validateIdentifier("resource", req.Resource); err != nil {
		return nil, err
	}
	if !req.Action.Valid() {
		return nil, NewError(ErrInvalidRequest, "unknown action "+string(req.Action)).
			WithUser(req.UserID).
			WithResource(req.Resource, req.Action)
	}

	key := DecisionKey{
		UserID:         req.UserID,
		Resource:       req.Resource,
		Action:         req.Action,
		OrganizationID: req.Context.OrganizationID,
		GroupID:        req.Context.GroupID,
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			decisionCacheTotal.WithLabelValues("hit").Inc()
			return checkResponse(req, *cached), nil
		}
		decisionCacheTotal.WithLabelValues("miss").Inc()
	}

	assignments, err := s.ListValidAssignments(ctx, req.UserID, &req.Context)
	if err != nil {
		decisionsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Error("permission check unavailable",
			zap.String("user_id", req.UserID),
			zap.String("resource", req.Resource),
			zap.Error(err),
		)
		return nil, NewError(ErrDecisionUnavailable, err.Error()).
			WithUser(req.UserID).
			WithResource(req.Resource, req.Action)
	}

	decision := decide(assignments, s.registry, s.evaluator, req.Resource, req.Action, req.Context)

	if s.cache != nil {
		s.cache.Set(ctx, key, &decision)
	}
	s.auditDecision(ctx, req, decision)

	if decision.Allowed {
		decisionsTotal.WithLabelValues("allowed").Inc()
	} else {
		decisionsTotal.WithLabelValues("denied").Inc()
	}

	return checkResponse(req, decision), nil
}

func checkResponse(req PermissionCheckRequest, d Decision) *PermissionCheckResponse {
	return &PermissionCheckResponse{
		Allowed:     d.Allowed,
		UserID:      req.UserID,
		Resource:    req.Resource,
		Action:      req.Action,
		MatchedRole: d.MatchedRole,
		Reason:      d.Reason,
	}
}

// HasRole reports whether at least one of the user's currently-valid,
// scope-matched assignments carries one of the allowed role names. It is a
// pure role-membership test: Permission records are not consulted.
func (s *Service) HasRole(ctx context.Context, userID string, allowed []RoleType, scope *RequestContext) (bool, error) {
	if err := validateIdentifier("user id", userID); err != nil {
		return false, err
	}

	assignments, err := s.ListValidAssignments(ctx, userID, scope)
	if err != nil {
		return false, NewError(ErrDecisionUnavailable, err.Error()).WithUser(userID)
	}

	for _, a := range assignments {
		role, err := s.registry.GetRole(a.RoleID)
		if err != nil || !role.IsActive {
			continue
		}
		for _, want := range allowed {
			if role.Name == string(want) {
				return true, nil
			}
		}
	}
	return false, nil
}

// GetUserPermissions returns the full aggregated view for a user across all
// scopes: every distinct active role from a currently-valid assignment and
// the union of those roles' active permissions. Administrative surfaces use
// this to render what a user can do.
func (s *Service) GetUserPermissions(ctx context.Context, userID string) (*UserPermissionsResponse, error) {
	if err := validateIdentifier("user id", userID); err != nil {
		return nil, err
	}

	assignments, err := s.ListValidAssignments(ctx, userID, nil)
	if err != nil {
		return nil, NewError(ErrDecisionUnavailable, err.Error()).WithUser(userID)
	}

	resp := &UserPermissionsResponse{
		UserID:      userID,
		Roles:       []Role{},
		Permissions: []Permission{},
	}

	seen := make(map[string]bool)
	for _, a := range assignments {
		if seen[a.RoleID] {
			continue
		}
		seen[a.RoleID] = true

		role, err := s.registry.GetRole(a.RoleID)
		if err != nil || !role.IsActive {
			continue
		}

		resp.Roles = append(resp.Roles, *role)
		resp.Permissions = append(resp.Permissions, s.registry.ListPermissions(role.ID)...)
	}

	return resp, nil
}

// GetChecker loads the user's currently-valid assignments once and returns
// a Checker answering repeated checks against that snapshot. Intended to be
// request-scoped: the snapshot does not observe later mutations.
func (s *Service) GetChecker(ctx context.Context, userID string) (*Checker, error) {
	assignments, err := s.ListValidAssignments(ctx, userID, nil)
	if err != nil {
		return nil, NewError(ErrDecisionUnavailable, err.Error()).WithUser(userID)
	}
	return NewChecker(userID, assignments, s.registry, s.evaluator), nil
}

// auditDecision records an access decision per the configured policy.
// Unlike mutation audits this is best effort: a failed append is logged and
// does not fail the check.
func (s *Service) auditDecision(ctx context.Context, req PermissionCheckRequest, d Decision) {
	switch s.auditMode {
	case AuditDecisionsOff:
		return
	case AuditDecisionsDenied:
		if d.Allowed {
			return
		}
	}

	action := AuditAccessDenied
	if d.Allowed {
		action = AuditAccessGranted
	}

	audit := GetAuditContext(ctx)
	entry := &AuditEntry{
		UserID:       req.UserID,
		Action:       action,
		ResourceType: req.Resource,
		Details: map[string]any{
			"action":          string(req.Action),
			"matched_role":    d.MatchedRole,
			"reason":          d.Reason,
			"organization_id": req.Context.OrganizationID,
			"group_id":        req.Context.GroupID,
		},
		IPAddress: audit.IPAddress,
		UserAgent: audit.UserAgent,
	}

	if err := s.recordAudit(ctx, entry); err != nil {
		s.logger.Warn("decision audit append failed",
			zap.String("user_id", req.UserID),
			zap.String("resource", req.Resource),
			zap.Error(err),
		)
	}
}
