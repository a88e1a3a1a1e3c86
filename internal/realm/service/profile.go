package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
)

// Profile is the identity behind a verified credential.
type Profile struct {
	Identity domain.Identity
	Tenant   *domain.Tenant // nil for the platform realm
}

// Profile loads the identity a credential was issued to. Tenant users are
// looked up through the credential's own tenant filter.
func (a *Authenticator) Profile(ctx context.Context, v domain.VerifiedIdentity) (Profile, error) {
	switch v.Realm {
	case domain.RealmPlatform:
		account, err := a.Store.PlatformAccounts().GetAccountByID(ctx, v.OwnerID)
		if err != nil {
			return Profile{}, profileErr(err)
		}
		return Profile{Identity: domain.PlatformIdentity(account)}, nil

	case domain.RealmTenant:
		f, ok := v.TenantFilter()
		if !ok {
			return Profile{}, ErrUnauthenticated
		}
		user, err := a.Store.TenantUsers().GetUserByID(ctx, f, v.OwnerID)
		if err != nil {
			return Profile{}, profileErr(err)
		}
		tenant, err := a.Store.Tenants().GetTenantByID(ctx, f.TenantID())
		if err != nil {
			return Profile{}, profileErr(err)
		}
		return Profile{Identity: domain.TenantIdentity(user), Tenant: &tenant}, nil

	default:
		return Profile{}, ErrUnauthenticated
	}
}

// profileErr treats a vanished owner as an unauthenticated credential.
func profileErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnauthenticated
	}
	return unavailable(err)
}
