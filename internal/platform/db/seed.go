package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hrpay/internal/domain/auth"
	"hrpay/internal/platform/querier"
)

type SeedOptions struct {
	TenantName    string
	AdminEmail    string
	AdminPassword string
}

// Seed makes sure the default tenant, the permission catalogue, the roles
// with their grants and the first HR user exist. It is idempotent.
func Seed(ctx context.Context, db querier.Querier, opts SeedOptions) error {
	tenantID, err := ensureTenant(ctx, db, opts.TenantName)
	if err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}
	permIDs, err := ensurePermissions(ctx, db)
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	roleIDs, err := ensureRoles(ctx, db, tenantID)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	for roleName, perms := range auth.RolePermissions {
		for _, key := range perms {
			if _, err := db.Exec(ctx, `
    INSERT INTO role_permissions (role_id, permission_id)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, roleIDs[roleName], permIDs[key]); err != nil {
				return fmt.Errorf("grant %s to %s: %w", key, roleName, err)
			}
		}
	}
	for roleName, perms := range auth.RevokedPermissions {
		for _, key := range perms {
			if _, err := db.Exec(ctx, `
    DELETE FROM role_permissions
    WHERE role_id = $1 AND permission_id = $2
  `, roleIDs[roleName], permIDs[key]); err != nil {
				return fmt.Errorf("revoke %s from %s: %w", key, roleName, err)
			}
		}
	}
	return ensureAdminUser(ctx, db, tenantID, roleIDs[auth.RoleHR], opts.AdminEmail, opts.AdminPassword)
}

func ensureTenant(ctx context.Context, db querier.Querier, name string) (string, error) {
	var id string
	err := db.QueryRow(ctx, `
    INSERT INTO tenants (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, name).Scan(&id)
	return id, err
}

func ensurePermissions(ctx context.Context, db querier.Querier) (map[string]string, error) {
	ids := map[string]string{}
	for _, key := range auth.DefaultPermissions {
		var id string
		if err := db.QueryRow(ctx, `
    INSERT INTO permissions (key) VALUES ($1)
    ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
    RETURNING id
  `, key).Scan(&id); err != nil {
			return nil, err
		}
		ids[key] = id
	}
	return ids, nil
}

func ensureRoles(ctx context.Context, db querier.Querier, tenantID string) (map[string]string, error) {
	ids := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		if err := db.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
    ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, tenantID, roleName).Scan(&id); err != nil {
			return nil, err
		}
		ids[roleName] = id
	}
	return ids, nil
}

func ensureAdminUser(ctx context.Context, db querier.Querier, tenantID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	var id string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role_id)
    VALUES ($1, $2, $3, $4)
  `, tenantID, strings.TrimSpace(email), hash, roleID)
	return err
}
