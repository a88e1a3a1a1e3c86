package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

type platformRolesRepo struct {
	conn
}

const platformRoleColumns = `id, slug, name, abilities, created_at, updated_at`

func (r *platformRolesRepo) CreateRole(ctx context.Context, role domain.PlatformRole) error {
	_, err := r.exec(ctx, `
		INSERT INTO platform_roles (`+platformRoleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.Slug, role.Name, joinAbilities(role.Abilities),
		role.CreatedAt.UTC(), role.UpdatedAt.UTC(),
	)
	return err
}

func (r *platformRolesRepo) GetRoleByID(ctx context.Context, id string) (domain.PlatformRole, error) {
	var row platformRoleRow
	if err := r.get(ctx, &row, `SELECT `+platformRoleColumns+` FROM platform_roles WHERE id = ?`, id); err != nil {
		return domain.PlatformRole{}, err
	}
	return row.toDomain(), nil
}

func (r *platformRolesRepo) GetRoleBySlug(ctx context.Context, slug string) (domain.PlatformRole, error) {
	var row platformRoleRow
	if err := r.get(ctx, &row, `SELECT `+platformRoleColumns+` FROM platform_roles WHERE slug = ?`, slug); err != nil {
		return domain.PlatformRole{}, err
	}
	return row.toDomain(), nil
}

func (r *platformRolesRepo) AssignRole(ctx context.Context, accountID, roleID string) error {
	_, err := r.exec(ctx, `
		INSERT INTO platform_account_roles (account_id, role_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id, role_id) DO NOTHING`,
		accountID, roleID, time.Now().UTC(),
	)
	return err
}

func (r *platformRolesRepo) ListAccountRoles(ctx context.Context, accountID string) ([]domain.PlatformRole, error) {
	var rows []platformRoleRow
	err := r.selectAll(ctx, &rows, `
		SELECT r.id, r.slug, r.name, r.abilities, r.created_at, r.updated_at
		FROM platform_roles r
		JOIN platform_account_roles ar ON ar.role_id = r.id
		WHERE ar.account_id = ?
		ORDER BY r.slug`, accountID)
	if err != nil {
		return nil, err
	}

	roles := make([]domain.PlatformRole, len(rows))
	for i, row := range rows {
		roles[i] = row.toDomain()
	}
	return roles, nil
}
