package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
)

type tenantRolesRepo struct {
	conn
}

const tenantRoleColumns = `id, tenant_id, slug, name, abilities, created_at, updated_at`

func (r *tenantRolesRepo) CreateRole(ctx context.Context, role domain.TenantRole) error {
	_, err := r.exec(ctx, `
		INSERT INTO tenant_roles (`+tenantRoleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		role.ID, role.TenantID, role.Slug, role.Name, joinAbilities(role.Abilities),
		role.CreatedAt.UTC(), role.UpdatedAt.UTC(),
	)
	return err
}

func (r *tenantRolesRepo) GetRoleByID(
	ctx context.Context,
	f domain.TenantFilter,
	id string,
) (domain.TenantRole, error) {
	if f.IsZero() {
		return domain.TenantRole{}, store.ErrNotFound
	}
	var row tenantRoleRow
	err := r.get(ctx, &row,
		`SELECT `+tenantRoleColumns+` FROM tenant_roles WHERE tenant_id = ? AND id = ?`,
		f.TenantID(), id)
	if err != nil {
		return domain.TenantRole{}, err
	}
	return row.toDomain(), nil
}

func (r *tenantRolesRepo) RoleTenantID(ctx context.Context, roleID string) (string, error) {
	var tenantID string
	if err := r.get(ctx, &tenantID, `SELECT tenant_id FROM tenant_roles WHERE id = ?`, roleID); err != nil {
		return "", err
	}
	return tenantID, nil
}

// AssignRole relies on the composite foreign keys of tenant_user_roles: both
// the user and the role must exist under f's tenant or the insert fails.
func (r *tenantRolesRepo) AssignRole(ctx context.Context, f domain.TenantFilter, userID, roleID string) error {
	if f.IsZero() {
		return store.ErrConflict
	}
	_, err := r.exec(ctx, `
		INSERT INTO tenant_user_roles (tenant_id, user_id, role_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, user_id, role_id) DO NOTHING`,
		f.TenantID(), userID, roleID, time.Now().UTC(),
	)
	return err
}

func (r *tenantRolesRepo) ListUserRoles(
	ctx context.Context,
	f domain.TenantFilter,
	userID string,
) ([]domain.TenantRole, error) {
	if f.IsZero() {
		return nil, nil
	}
	var rows []tenantRoleRow
	err := r.selectAll(ctx, &rows, `
		SELECT r.id, r.tenant_id, r.slug, r.name, r.abilities, r.created_at, r.updated_at
		FROM tenant_roles r
		JOIN tenant_user_roles ur ON ur.role_id = r.id
		WHERE ur.tenant_id = ? AND ur.user_id = ?
		ORDER BY r.slug`, f.TenantID(), userID)
	if err != nil {
		return nil, err
	}

	roles := make([]domain.TenantRole, len(rows))
	for i, row := range rows {
		roles[i] = row.toDomain()
	}
	return roles, nil
}
