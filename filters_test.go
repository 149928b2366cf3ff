package accesskit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewAuditFilter tests defaults
func TestNewAuditFilter(t *testing.T) {
	f := NewAuditFilter()

	assert.Equal(t, 100, f.Limit)
	assert.Zero(t, f.Offset)
	assert.Empty(t, f.UserID)
	assert.Empty(t, f.Action)
	assert.True(t, f.Since.IsZero())
}

// TestAuditFilterChaining tests the fluent filter builders
func TestAuditFilterChaining(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	f := NewAuditFilter().
		WithUser("admin-1").
		WithAction(AuditRoleAssigned).
		WithResource("user_roles", "ur-1").
		WithTimeRange(since, until).
		WithPagination(25, 50)

	assert.Equal(t, "admin-1", f.UserID)
	assert.Equal(t, AuditRoleAssigned, f.Action)
	assert.Equal(t, "user_roles", f.ResourceType)
	assert.Equal(t, "ur-1", f.ResourceID)
	assert.Equal(t, since, f.Since)
	assert.Equal(t, until, f.Until)
	assert.Equal(t, 25, f.Limit)
	assert.Equal(t, 50, f.Offset)
}

// TestAuditFilterValueSemantics tests that chaining never mutates the receiver
func TestAuditFilterValueSemantics(t *testing.T) {
	base := NewAuditFilter().WithUser("admin-1")
	derived := base.WithAction(AuditRoleRevoked).WithLimit(10)

	assert.Empty(t, base.Action)
	assert.Equal(t, 100, base.Limit)
	assert.Equal(t, AuditRoleRevoked, derived.Action)
	assert.Equal(t, 10, derived.Limit)
	assert.Equal(t, "admin-1", derived.UserID)
}

// TestAuditFilterSingleFieldSetters tests the narrower setters
func TestAuditFilterSingleFieldSetters(t *testing.T) {
	since := time.Now().Add(-time.Hour)
	until := time.Now()

	f := NewAuditFilter().
		WithResourceType("audit_log").
		WithSince(since).
		WithUntil(until).
		WithOffset(5)

	assert.Equal(t, "audit_log", f.ResourceType)
	assert.Empty(t, f.ResourceID)
	assert.Equal(t, since, f.Since)
	assert.Equal(t, until, f.Until)
	assert.Equal(t, 5, f.Offset)
}
