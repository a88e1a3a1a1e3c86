package sqlstore

import (
	"context"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

type tenantsRepo struct {
	conn
}

const tenantColumns = `id, name, slug, status, subscription_status, trial_ends_at, subscription_ends_at, created_at, updated_at`

func (r *tenantsRepo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	_, err := r.exec(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Slug, string(t.Status), string(t.SubscriptionStatus),
		mapOptionalTime(t.TrialEndsAt), mapOptionalTime(t.SubscriptionEndsAt),
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	return err
}

func (r *tenantsRepo) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	var row tenantRow
	if err := r.get(ctx, &row, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id); err != nil {
		return domain.Tenant{}, err
	}
	return row.toDomain(), nil
}

func (r *tenantsRepo) GetTenantBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	var row tenantRow
	if err := r.get(ctx, &row, `SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug); err != nil {
		return domain.Tenant{}, err
	}
	return row.toDomain(), nil
}

func (r *tenantsRepo) UpdateTenant(ctx context.Context, t domain.Tenant) error {
	return r.execOne(ctx, `
		UPDATE tenants
		SET name = ?, status = ?, subscription_status = ?, trial_ends_at = ?,
			subscription_ends_at = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, string(t.Status), string(t.SubscriptionStatus),
		mapOptionalTime(t.TrialEndsAt), mapOptionalTime(t.SubscriptionEndsAt),
		t.UpdatedAt.UTC(), t.ID,
	)
}
