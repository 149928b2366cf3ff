package accesskit

import (
	"context"
	"sync"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ASSIGNMENT STORE
// ============================================================================

// userLockTable serializes writes per affected user so a concurrent assign
// and revoke for the same user cannot interleave into an inconsistent state
// (e.g. a revoke racing the duplicate check in assign). No global lock: the
// engine is read-mostly and checks never take these locks. Entries are one
// bare mutex per user ever mutated in this process and are not reclaimed.
type userLockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLockTable() *userLockTable {
	return &userLockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *userLockTable) lock(userID string) func() {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// validateIdentifier rejects empty identifiers before any store round-trip.
// Identifiers are otherwise opaque: no format is imposed.
func validateIdentifier(field, value string) error {
	if value == "" {
		return NewError(ErrInvalidRequest, field+" must not be empty")
	}
	return nil
}

// ListValidAssignments returns every assignment for the user that is
// currently valid: active and unexpired. When scope is non-nil the result
// is additionally narrowed to assignments whose scope is compatible with
// it (see UserRole.MatchesScope); a global assignment matches any scope.
func (s *Service) ListValidAssignments(ctx context.Context, userID string, scope *RequestContext) ([]UserRole, error) {
	if err := validateIdentifier("user id", userID); err != nil {
		return nil, err
	}

	var assignments []UserRole
	err := dbkit.WithErr1(s.db.NewSelect().Model(&assignments).
		Where("user_id = ?", userID).
		Where("is_active = TRUE").
		Where("(expires_at IS NULL OR expires_at > ?)", s.now()).
		Order("assigned_at ASC").
		Scan(ctx), "ListValidAssignments").Err()
	if err != nil {
		return nil, err
	}

	if scope == nil {
		return assignments, nil
	}

	matched := make([]UserRole, 0, len(assignments))
	for _, a := range assignments {
		if a.MatchesScope(scope.OrganizationID, scope.GroupID) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// AssignRole grants a role to a user. The role must exist in the registry
// and an identical currently-valid (user, role, organization, group)
// assignment must not already exist. The assignment row and its
// role_assigned audit record are written in one transaction; if the audit
// append fails the assignment fails with it. On success every cached
// decision for the user is invalidated.
func (s *Service) AssignRole(ctx context.Context, req AssignRoleRequest) (*UserRole, error) {
	if err := validateIdentifier("user id", req.UserID); err != nil {
		return nil, err
	}
	if err := validateIdentifier("role id", req.RoleID); err != nil {
		return nil, err
	}

	actorID := GetActorID(ctx)
	if actorID == "" {
		return nil, NewError(ErrNoActorID, "actor ID required for role assignment")
	}

	role, err := s.registry.GetRole(req.RoleID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(req.UserID)
	defer unlock()

	assignment := &UserRole{
		UserID:         req.UserID,
		RoleID:         req.RoleID,
		OrganizationID: req.OrganizationID,
		GroupID:        req.GroupID,
		ExpiresAt:      req.ExpiresAt,
		AssignedBy:     actorID,
		AssignedAt:     s.now(),
		IsActive:       true,
	}

	audit := GetAuditContext(ctx)
	err = s.transact(ctx, func(txs *Service) error {
		dup, err := txs.hasValidAssignment(ctx, req.UserID, req.RoleID, req.OrganizationID, req.GroupID)
		if err != nil {
			return err
		}
		if dup {
			return NewError(ErrDuplicateAssignment, "user already has this role in this scope").
				WithUser(req.UserID).
				WithRole(req.RoleID).
				WithScope(req.OrganizationID, req.GroupID)
		}

		result, err := txs.db.NewInsert().Model(assignment).Returning("id").Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateUserRole").Err(); err != nil {
			return err
		}

		return txs.recordAudit(ctx, &AuditEntry{
			UserID:       actorID,
			Action:       AuditRoleAssigned,
			ResourceType: "user_roles",
			ResourceID:   assignment.ID,
			Details: map[string]any{
				"target_user_id":  req.UserID,
				"role_id":         req.RoleID,
				"role_name":       role.Name,
				"organization_id": req.OrganizationID,
				"group_id":        req.GroupID,
			},
			IPAddress: audit.IPAddress,
			UserAgent: audit.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, req.UserID)
	assignmentMutations.WithLabelValues("assign").Inc()
	s.logger.Info("role assigned",
		zap.String("user_id", req.UserID),
		zap.String("role", role.Name),
		zap.String("organization_id", req.OrganizationID),
		zap.String("group_id", req.GroupID),
		zap.String("actor_id", actorID),
	)

	return assignment, nil
}

// RevokeRole soft-deletes the currently-valid assignment(s) matching the
// given (user, role, scope) tuple. Rows are never hard-deleted so the
// audit trail stays reconstructible. Fails with ErrAssignmentNotFound when
// nothing matches. Audit and cache semantics mirror AssignRole.
func (s *Service) RevokeRole(ctx context.Context, req RevokeRoleRequest) error {
	if err := validateIdentifier("user id", req.UserID); err != nil {
		return err
	}
	if err := validateIdentifier("role id", req.RoleID); err != nil {
		return err
	}

	actorID := GetActorID(ctx)
	if actorID == "" {
		return NewError(ErrNoActorID, "actor ID required for role revocation")
	}

	unlock := s.locks.lock(req.UserID)
	defer unlock()

	audit := GetAuditContext(ctx)
	err := s.transact(ctx, func(txs *Service) error {
		var matches []UserRole
		err := dbkit.WithErr1(txs.db.NewSelect().Model(&matches).
			Column("id").
			Where("user_id = ? AND role_id = ?", req.UserID, req.RoleID).
			Where("organization_id = ? AND group_id = ?", req.OrganizationID, req.GroupID).
			Where("is_active = TRUE").
			Where("(expires_at IS NULL OR expires_at > ?)", s.now()).
			Scan(ctx), "FindUserRolesForRevoke").Err()
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return NewError(ErrAssignmentNotFound, "no currently-valid assignment matches").
				WithUser(req.UserID).
				WithRole(req.RoleID).
				WithScope(req.OrganizationID, req.GroupID)
		}

		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}

		result, err := txs.db.NewUpdate().Model((*UserRole)(nil)).
			Set("is_active = FALSE").
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "RevokeUserRole").Err(); err != nil {
			return err
		}

		roleName := ""
		if role, err := txs.registry.GetRole(req.RoleID); err == nil {
			roleName = role.Name
		}

		return txs.recordAudit(ctx, &AuditEntry{
			UserID:       actorID,
			Action:       AuditRoleRevoked,
			ResourceType: "user_roles",
			ResourceID:   ids[0],
			Details: map[string]any{
				"target_user_id":  req.UserID,
				"role_id":         req.RoleID,
				"role_name":       roleName,
				"organization_id": req.OrganizationID,
				"group_id":        req.GroupID,
				"revoked_count":   len(ids),
			},
			IPAddress: audit.IPAddress,
			UserAgent: audit.UserAgent,
		})
	})
	if err != nil {
		return err
	}

	s.invalidateUser(ctx, req.UserID)
	assignmentMutations.WithLabelValues("revoke").Inc()
	s.logger.Info("role revoked",
		zap.String("user_id", req.UserID),
		zap.String("role_id", req.RoleID),
		zap.String("organization_id", req.OrganizationID),
		zap.String("group_id", req.GroupID),
		zap.String("actor_id", actorID),
	)

	return nil
}

// hasValidAssignment checks for a currently-valid assignment with the exact
// (user, role, organization, group) tuple.
func (s *Service) hasValidAssignment(ctx context.Context, userID, roleID, organizationID, groupID string) (bool, error) {
	exists, err := dbkit.Exists[UserRole](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ? AND role_id = ?", userID, roleID).
			Where("organization_id = ? AND group_id = ?", organizationID, groupID).
			Where("is_active = TRUE").
			Where("(expires_at IS NULL OR expires_at > ?)", s.now())
	})
	if err != nil {
		return false, dbkit.WithErr1(err, "HasValidAssignment").Err()
	}
	return exists, nil
}

// invalidateUser drops every cached decision for the user.
func (s *Service) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateUser(ctx, userID)
}
