// Package accesskit provides the role and permission decision engine behind
// a childcare-management portal's access gating: directors-only panels,
// resource-scoped read/write checks, and the audit trail those surfaces
// require.
//
// # Core Concepts
//
// Role: a named set of permissions stored as data. The portal ships with a
// closed set of role names (director, teacher, assistant, staff, parent)
// but the catalog itself is rows, not code: new resources need new
// Permission rows, not new code paths.
//
// Permission: grants one action (read, write, delete or manage) on one
// opaque resource key such as "children" or "invoices". "manage" implies
// the other three. A permission may carry a condition predicate map, e.g.
// {"ownChildOnly": true}, evaluated against the request context; a
// condition key without a registered handler fails closed.
//
// Assignment: one grant of a role to a user, optionally scoped to an
// organization and/or a group within it, optionally expiring. Revocation
// soft-deletes; assignment history is never destroyed.
//
// Decision: the transient allow/deny result of a check, with the matched
// role name or a structured denial reason. A store failure is never folded
// into a denial: it surfaces as ErrDecisionUnavailable so callers can fail
// closed knowingly.
//
// # Basic Usage
//
//	// 1. Seed the role catalog (at application startup)
//	registry := accesskit.DefaultRegistry()
//
//	// 2. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := accesskit.NewService(registry, db,
//	    accesskit.WithCache(accesskit.NewMemoryCache(time.Minute)),
//	    accesskit.WithLogger(logger),
//	)
//
//	// 3. Run migrations and persist the seeded catalog
//	db.Migrate(ctx, service.Migrations())
//	service.SyncRoles(ctx)
//
//	// 4. Assign roles
//	ctx = accesskit.WithActorID(ctx, adminID)
//	service.AssignRole(ctx, accesskit.AssignRoleRequest{
//	    UserID:         teacherID,
//	    RoleID:         roleID,
//	    OrganizationID: "org-1",
//	})
//
//	// 5. Check permissions
//	resp, err := service.CheckPermission(ctx, accesskit.PermissionCheckRequest{
//	    UserID:   teacherID,
//	    Resource: "children",
//	    Action:   accesskit.ActionRead,
//	    Context:  accesskit.RequestContext{OrganizationID: "org-1"},
//	})
//
// # Scoping
//
// An assignment without organization or group is global. An assignment
// with an organization matches any request in that organization; one with
// both organization and group matches only that exact pair. A grant in
// org-1 never satisfies a request in org-2, and a grant for group G1 never
// satisfies a request for G2.
//
// # Audit Log
//
// Role assignment and revocation always append an audit record, in the
// same transaction as the row write: a mutation without a trail cannot
// commit. Whether permission checks are audited too is a policy option
// (WithDecisionAudit); the default records denials only.
//
// # Caching
//
// The decision cache is an injectable component keyed by the full request
// tuple. Any mutation for a user invalidates all of that user's entries;
// a TTL bounds staleness from out-of-band catalog edits. A miss always
// falls through to a full evaluation.
package accesskit
