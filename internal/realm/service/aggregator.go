package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

// Aggregator computes the ability set granted to an identity by its roles.
type Aggregator struct {
	Store store.Store
}

// ResolveAbilities returns the sorted, de-duplicated union of the abilities
// of every role attached to id. Platform identities only see platform roles
// and tenant identities only see roles of their own tenant.
func (a *Aggregator) ResolveAbilities(ctx context.Context, id domain.Identity) ([]string, error) {
	switch id.Realm() {
	case domain.RealmPlatform:
		account, _ := id.Platform()
		roles, err := a.Store.PlatformRoles().ListAccountRoles(ctx, account.ID)
		if err != nil {
			return nil, unavailable(err)
		}
		sets := make([][]string, len(roles))
		for i, r := range roles {
			sets[i] = r.Abilities
		}
		return unionAbilities(sets...), nil

	case domain.RealmTenant:
		user, _ := id.Tenant()
		roles, err := a.Store.TenantRoles().ListUserRoles(ctx, user.Filter(), user.ID)
		if err != nil {
			return nil, unavailable(err)
		}
		return tenantAbilities(ctx, user, roles), nil

	default:
		return nil, domain.ErrUnknownRealm
	}
}

// tenantAbilities drops any role that does not belong to the user's tenant.
// Assignment already rejects such roles; this only guards against bad data.
func tenantAbilities(ctx context.Context, user domain.TenantUser, roles []domain.TenantRole) []string {
	sets := make([][]string, 0, len(roles))
	for _, r := range roles {
		if r.TenantID != user.TenantID {
			slogx.FromContext(ctx).Warn("ignoring foreign tenant role",
				slog.String("user_id", user.ID),
				slog.String("tenant_id", user.TenantID),
				slog.String("role_id", r.ID),
				slog.String("role_tenant_id", r.TenantID),
			)
			continue
		}
		sets = append(sets, r.Abilities)
	}
	return unionAbilities(sets...)
}

func unionAbilities(sets ...[]string) []string {
	out := []string{}
	for _, set := range sets {
		for _, ability := range set {
			if ability != "" {
				out = append(out, ability)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
