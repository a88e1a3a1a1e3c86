package http

import (
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

func platformUser(a domain.PlatformAccount) realmsdk.User {
	return realmsdk.User{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Status:      string(a.Status),
		LastLoginAt: a.LastLoginAt,
	}
}

func tenantUser(u domain.TenantUser) realmsdk.User {
	return realmsdk.User{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Name:        u.Name,
		Email:       u.Email,
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
	}
}

func identityUser(id domain.Identity) realmsdk.User {
	if a, ok := id.Platform(); ok {
		return platformUser(a)
	}
	u, _ := id.Tenant()
	return tenantUser(u)
}

func tenantResource(t domain.Tenant) realmsdk.Tenant {
	return realmsdk.Tenant{
		ID:                 t.ID,
		Name:               t.Name,
		Slug:               t.Slug,
		Status:             string(t.Status),
		SubscriptionStatus: string(t.SubscriptionStatus),
		TrialEndsAt:        t.TrialEndsAt,
		SubscriptionEndsAt: t.SubscriptionEndsAt,
	}
}

func tenantPtr(t *domain.Tenant) *realmsdk.Tenant {
	if t == nil {
		return nil
	}
	res := tenantResource(*t)
	return &res
}

func tokenResponse(token string, c domain.Credential) realmsdk.TokenResponse {
	abilities := c.Abilities
	if abilities == nil {
		abilities = []string{}
	}
	return realmsdk.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		Realm:     realmsdk.Realm(c.Realm),
		Abilities: abilities,
		ExpiresAt: c.ExpiresAt,
		ExpiresIn: int64(c.ExpiresAt.Sub(c.IssuedAt) / time.Second),
	}
}

func tenantRole(r domain.TenantRole) realmsdk.Role {
	return realmsdk.Role{ID: r.ID, TenantID: r.TenantID, Slug: r.Slug, Name: r.Name, Abilities: nonNil(r.Abilities)}
}

func platformRole(r domain.PlatformRole) realmsdk.Role {
	return realmsdk.Role{ID: r.ID, Slug: r.Slug, Name: r.Name, Abilities: nonNil(r.Abilities)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
