package accesskit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestActionValid tests the closed action set
func TestActionValid(t *testing.T) {
	assert.True(t, ActionRead.Valid())
	assert.True(t, ActionWrite.Valid())
	assert.True(t, ActionDelete.Valid())
	assert.True(t, ActionManage.Valid())

	assert.False(t, Action("").Valid())
	assert.False(t, Action("admin").Valid())
	assert.False(t, Action("READ").Valid())
}

// TestActionSatisfies tests the action hierarchy: manage covers everything
func TestActionSatisfies(t *testing.T) {
	// Exact matches
	assert.True(t, ActionRead.Satisfies(ActionRead))
	assert.True(t, ActionWrite.Satisfies(ActionWrite))
	assert.True(t, ActionDelete.Satisfies(ActionDelete))
	assert.True(t, ActionManage.Satisfies(ActionManage))

	// Manage implies read, write and delete
	assert.True(t, ActionManage.Satisfies(ActionRead))
	assert.True(t, ActionManage.Satisfies(ActionWrite))
	assert.True(t, ActionManage.Satisfies(ActionDelete))

	// Nothing else implies anything
	assert.False(t, ActionRead.Satisfies(ActionWrite))
	assert.False(t, ActionWrite.Satisfies(ActionRead))
	assert.False(t, ActionDelete.Satisfies(ActionManage))
	assert.False(t, ActionRead.Satisfies(ActionManage))
}

// TestRolePrecedence tests the reporting order of the built-in roles
func TestRolePrecedence(t *testing.T) {
	assert.Less(t, precedenceOf("director"), precedenceOf("teacher"))
	assert.Less(t, precedenceOf("teacher"), precedenceOf("assistant"))
	assert.Less(t, precedenceOf("assistant"), precedenceOf("staff"))
	assert.Less(t, precedenceOf("staff"), precedenceOf("parent"))

	// Unknown names sort after all known ones
	assert.Greater(t, precedenceOf("custom_role"), precedenceOf("parent"))
}

// TestUserRoleValidAt tests the currently-valid invariant
func TestUserRoleValidAt(t *testing.T) {
	now := time.Now()

	active := &UserRole{IsActive: true}
	assert.True(t, active.ValidAt(now), "active assignment without expiry is valid")

	inactive := &UserRole{IsActive: false}
	assert.False(t, inactive.ValidAt(now), "soft-deleted assignment is never valid")

	future := &UserRole{IsActive: true, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, future.ValidAt(now))

	expired := &UserRole{IsActive: true, ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, expired.ValidAt(now), "expired assignment is excluded even when active")

	inactiveFuture := &UserRole{IsActive: false, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, inactiveFuture.ValidAt(now))
}

// TestUserRoleMatchesScope tests scope compatibility
func TestUserRoleMatchesScope(t *testing.T) {
	global := &UserRole{}
	assert.True(t, global.MatchesScope("", ""))
	assert.True(t, global.MatchesScope("org-1", ""))
	assert.True(t, global.MatchesScope("org-1", "g-1"))

	orgOnly := &UserRole{OrganizationID: "org-1"}
	assert.True(t, orgOnly.MatchesScope("org-1", ""))
	assert.True(t, orgOnly.MatchesScope("org-1", "g-1"), "group is irrelevant for org-only assignments")
	assert.False(t, orgOnly.MatchesScope("org-2", ""))
	assert.False(t, orgOnly.MatchesScope("org-2", "g-1"))
	assert.False(t, orgOnly.MatchesScope("", ""), "org-scoped assignment does not match a global request")

	scoped := &UserRole{OrganizationID: "org-1", GroupID: "g-1"}
	assert.True(t, scoped.MatchesScope("org-1", "g-1"))
	assert.False(t, scoped.MatchesScope("org-1", "g-2"), "scope exclusivity across groups")
	assert.False(t, scoped.MatchesScope("org-2", "g-1"))
	assert.False(t, scoped.MatchesScope("org-1", ""))
}

// TestAuditEntryToModel tests audit entry conversion
func TestAuditEntryToModel(t *testing.T) {
	entry := &AuditEntry{
		UserID:       "admin-1",
		Action:       AuditRoleAssigned,
		ResourceType: "user_roles",
		ResourceID:   "ur-1",
		Details:      map[string]any{"target_user_id": "user-1"},
		IPAddress:    "10.0.0.7",
		UserAgent:    "portal/1.0",
	}

	record := entry.ToModel()

	assert.Equal(t, "admin-1", record.UserID)
	assert.Equal(t, AuditRoleAssigned, record.Action)
	assert.Equal(t, "user_roles", record.ResourceType)
	assert.Equal(t, "ur-1", record.ResourceID)
	assert.Equal(t, "user-1", record.Details["target_user_id"])
	assert.Equal(t, "10.0.0.7", record.IPAddress)
	assert.Equal(t, "portal/1.0", record.UserAgent)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Empty(t, record.ID, "id is generated by the database")
}
