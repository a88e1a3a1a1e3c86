package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
)

type tenantUsersRepo struct {
	conn
}

const tenantUserColumns = `id, tenant_id, name, email, password_hash, status, last_login_at, created_at, updated_at`

func (r *tenantUsersRepo) CreateUser(ctx context.Context, u domain.TenantUser) error {
	_, err := r.exec(ctx, `
		INSERT INTO tenant_users (`+tenantUserColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.TenantID, u.Name, u.Email, u.PasswordHash, string(u.Status),
		mapOptionalTime(u.LastLoginAt), u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return err
}

func (r *tenantUsersRepo) GetUserByID(
	ctx context.Context,
	f domain.TenantFilter,
	id string,
) (domain.TenantUser, error) {
	if f.IsZero() {
		return domain.TenantUser{}, store.ErrNotFound
	}
	var row tenantUserRow
	err := r.get(ctx, &row,
		`SELECT `+tenantUserColumns+` FROM tenant_users WHERE tenant_id = ? AND id = ?`,
		f.TenantID(), id)
	if err != nil {
		return domain.TenantUser{}, err
	}
	return row.toDomain(), nil
}

func (r *tenantUsersRepo) GetUserByEmail(
	ctx context.Context,
	tenantID, email string,
) (domain.TenantUser, error) {
	var row tenantUserRow
	err := r.get(ctx, &row,
		`SELECT `+tenantUserColumns+` FROM tenant_users WHERE tenant_id = ? AND email = ?`,
		tenantID, email)
	if err != nil {
		return domain.TenantUser{}, err
	}
	return row.toDomain(), nil
}

func (r *tenantUsersRepo) ListUsers(ctx context.Context, f domain.TenantFilter) ([]domain.TenantUser, error) {
	if f.IsZero() {
		return nil, nil
	}
	var rows []tenantUserRow
	err := r.selectAll(ctx, &rows,
		`SELECT `+tenantUserColumns+` FROM tenant_users WHERE tenant_id = ? ORDER BY email`,
		f.TenantID())
	if err != nil {
		return nil, err
	}

	users := make([]domain.TenantUser, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users, nil
}

func (r *tenantUsersRepo) UpdateUserStatus(
	ctx context.Context,
	f domain.TenantFilter,
	id string,
	status domain.Status,
	at time.Time,
) error {
	return r.execOne(ctx,
		`UPDATE tenant_users SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
		string(status), at.UTC(), f.TenantID(), id)
}

func (r *tenantUsersRepo) TouchLastLogin(
	ctx context.Context,
	f domain.TenantFilter,
	id string,
	at time.Time,
) error {
	return r.execOne(ctx,
		`UPDATE tenant_users SET last_login_at = ? WHERE tenant_id = ? AND id = ? AND status = ?`,
		at.UTC(), f.TenantID(), id, string(domain.StatusActive))
}
