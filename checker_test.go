package accesskit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckerCan tests snapshot-based permission checks
func TestCheckerCan(t *testing.T) {
	checker := NewChecker("user-1", []UserRole{
		{ID: "ur-1", UserID: "user-1", RoleID: "role-teacher", IsActive: true, OrganizationID: "org-1"},
	}, engineRegistry(), engineEvaluator())

	assert.Equal(t, "user-1", checker.UserID())
	assert.False(t, checker.IsEmpty())

	rc := RequestContext{OrganizationID: "org-1"}
	assert.True(t, checker.Can("children", ActionRead, rc))
	assert.True(t, checker.Can("children", ActionWrite, rc))
	assert.False(t, checker.Can("invoices", ActionRead, rc))
	assert.False(t, checker.Can("children", ActionRead, RequestContext{OrganizationID: "org-2"}))
}

// TestCheckerDecide tests the full decision surface of a checker
func TestCheckerDecide(t *testing.T) {
	checker := NewChecker("user-1", []UserRole{
		{ID: "ur-1", UserID: "user-1", RoleID: "role-director", IsActive: true},
	}, engineRegistry(), engineEvaluator())

	d := checker.Decide("invoices", ActionDelete, RequestContext{})
	assert.True(t, d.Allowed)
	assert.Equal(t, "director", d.MatchedRole)

	d = checker.Decide("reports", ActionRead, RequestContext{})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoMatchingPermission, d.Reason)
}

// TestCheckerRoleNames tests scope-filtered, deduplicated role listing
func TestCheckerRoleNames(t *testing.T) {
	checker := NewChecker("user-1", []UserRole{
		{ID: "ur-1", UserID: "user-1", RoleID: "role-teacher", IsActive: true},
		{ID: "ur-2", UserID: "user-1", RoleID: "role-teacher", IsActive: true, OrganizationID: "org-1"},
		{ID: "ur-3", UserID: "user-1", RoleID: "role-director", IsActive: true, OrganizationID: "org-2"},
		{ID: "ur-4", UserID: "user-1", RoleID: "role-gone", IsActive: true},
	}, engineRegistry(), engineEvaluator())

	// Global request: only the global assignment matches, stale role dropped
	assert.Equal(t, []string{"teacher"}, checker.RoleNames(RequestContext{}))

	// org-1 request: global and org-1 assignments both resolve to teacher, deduped
	assert.Equal(t, []string{"teacher"}, checker.RoleNames(RequestContext{OrganizationID: "org-1"}))

	// org-2 request: teacher (global) and director (org-2)
	assert.ElementsMatch(t, []string{"teacher", "director"},
		checker.RoleNames(RequestContext{OrganizationID: "org-2"}))
}

// TestCheckerHasAnyRole tests role membership checks
func TestCheckerHasAnyRole(t *testing.T) {
	checker := NewChecker("user-1", []UserRole{
		{ID: "ur-1", UserID: "user-1", RoleID: "role-teacher", IsActive: true, OrganizationID: "org-1"},
	}, engineRegistry(), engineEvaluator())

	rc := RequestContext{OrganizationID: "org-1"}
	assert.True(t, checker.HasAnyRole([]RoleType{RoleTeacher}, rc))
	assert.True(t, checker.HasAnyRole([]RoleType{RoleDirector, RoleTeacher}, rc))
	assert.False(t, checker.HasAnyRole([]RoleType{RoleDirector}, rc))
	assert.False(t, checker.HasAnyRole([]RoleType{RoleTeacher}, RequestContext{OrganizationID: "org-2"}))
	assert.False(t, checker.HasAnyRole(nil, rc))
}

// TestCheckerEmpty tests a checker for a user with no grants
func TestCheckerEmpty(t *testing.T) {
	checker := NewChecker("user-1", nil, engineRegistry(), engineEvaluator())

	assert.True(t, checker.IsEmpty())
	assert.False(t, checker.Can("children", ActionRead, RequestContext{}))
	d := checker.Decide("children", ActionRead, RequestContext{})
	assert.Equal(t, ReasonNoActiveRoles, d.Reason)
	assert.Empty(t, checker.RoleNames(RequestContext{}))
}

// TestCheckPermissionValidation tests request validation ahead of any store access
func TestCheckPermissionValidation(t *testing.T) {
	service := NewService(engineRegistry(), nil)
	ctx := context.Background()

	_, err := service.CheckPermission(ctx, PermissionCheckRequest{
		Resource: "children", Action: ActionRead,
	})
	assert.True(t, IsInvalidRequest(err), "empty user id")

	_, err = service.CheckPermission(ctx, PermissionCheckRequest{
		UserID: "user-1", Action: ActionRead,
	})
	assert.True(t, IsInvalidRequest(err), "empty resource")

	_, err = service.CheckPermission(ctx, PermissionCheckRequest{
		UserID: "user-1", Resource: "children", Action: Action("own"),
	})
	require.Error(t, err)
	assert.True(t, IsInvalidRequest(err), "unknown action")

	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "user-1", ae.UserID)
	assert.Equal(t, "children", ae.Resource)

	_, err = service.HasRole(ctx, "", []RoleType{RoleTeacher}, nil)
	assert.True(t, IsInvalidRequest(err))

	_, err = service.GetUserPermissions(ctx, "")
	assert.True(t, IsInvalidRequest(err))
}
