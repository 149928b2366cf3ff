package accesskit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for AccessKit.
// Use db.Migrate(ctx, service.Migrations()) to run them.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "accesskit-001",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    name TEXT NOT NULL,
                    display_name TEXT NOT NULL,
                    description TEXT,
                    is_system_role BOOLEAN NOT NULL DEFAULT FALSE,
                    is_active BOOLEAN NOT NULL DEFAULT TRUE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE UNIQUE INDEX IF NOT EXISTS roles_active_name_idx
                    ON roles (name) WHERE is_active`,
		},
		{
			ID:          "accesskit-002",
			Description: "Create role_permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_permissions (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    role_id UUID NOT NULL REFERENCES roles (id),
                    resource TEXT NOT NULL,
                    action TEXT NOT NULL,
                    conditions JSONB,
                    is_active BOOLEAN NOT NULL DEFAULT TRUE,
                    position INTEGER NOT NULL DEFAULT 0
                );
                CREATE INDEX IF NOT EXISTS role_permissions_role_idx
                    ON role_permissions (role_id)`,
		},
		{
			ID:          "accesskit-003",
			Description: "Create user_roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL,
                    role_id UUID NOT NULL,
                    organization_id TEXT NOT NULL DEFAULT '',
                    group_id TEXT NOT NULL DEFAULT '',
                    expires_at TIMESTAMPTZ,
                    assigned_by TEXT,
                    assigned_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    is_active BOOLEAN NOT NULL DEFAULT TRUE
                );
                CREATE INDEX IF NOT EXISTS user_roles_user_idx
                    ON user_roles (user_id) WHERE is_active;
                CREATE INDEX IF NOT EXISTS user_roles_tuple_idx
                    ON user_roles (user_id, role_id, organization_id, group_id)`,
		},
		{
			ID:          "accesskit-004",
			Description: "Create audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    resource_type TEXT NOT NULL,
                    resource_id TEXT,
                    details JSONB,
                    ip_address TEXT,
                    user_agent TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE INDEX IF NOT EXISTS audit_log_user_idx
                    ON audit_log (user_id, created_at DESC)`,
		},
	}
}

// SyncRoles persists the registry's seeded role definitions. Roles already
// present in the database are left untouched so out-of-band catalog edits
// survive restarts; only missing roles are inserted, with their permissions
// in declaration order. Finishes by reloading the lookup snapshot.
func (s *Service) SyncRoles(ctx context.Context) error {
	for _, def := range s.registry.Definitions() {
		exists, err := dbkit.Exists[Role](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name = ? AND is_active = TRUE", def.name)
		})
		if err != nil {
			return dbkit.WithErr1(err, "SyncRolesLookup").Err()
		}
		if exists {
			continue
		}

		role := &Role{
			Name:         def.name,
			DisplayName:  def.displayName,
			Description:  def.description,
			IsSystemRole: def.system,
			IsActive:     true,
			CreatedAt:    s.now(),
			UpdatedAt:    s.now(),
		}
		result, err := s.db.NewInsert().Model(role).Returning("id").Exec(ctx)
		if err := dbkit.WithErr(result, err, "SyncRolesInsertRole").Err(); err != nil {
			return err
		}

		for i, p := range def.perms {
			perm := &Permission{
				RoleID:     role.ID,
				Resource:   p.resource,
				Action:     p.action,
				Conditions: p.conditions,
				IsActive:   true,
				Position:   i,
			}
			result, err := s.db.NewInsert().Model(perm).Exec(ctx)
			if err := dbkit.WithErr(result, err, "SyncRolesInsertPermission").Err(); err != nil {
				return err
			}
		}
	}

	return s.ReloadRoles(ctx)
}

// ReloadRoles replaces the registry's lookup snapshot with the catalog as
// currently stored. Call after editing roles or permissions out of band;
// until then decisions keep reading the previous snapshot (the decision
// cache TTL bounds how long a stale grant can be served).
func (s *Service) ReloadRoles(ctx context.Context) error {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).
		Relation("Permissions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Order("name ASC").
		Scan(ctx), "ReloadRoles").Err()
	if err != nil {
		return err
	}

	s.registry.Load(roles)
	return nil
}
