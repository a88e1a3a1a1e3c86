package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

func TestParseRealm(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Realm
		wantErr bool
	}{
		{"platform", domain.RealmPlatform, false},
		{" Tenant ", domain.RealmTenant, false},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseRealm(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrUnknownRealm)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTenantAcceptsLogins(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	tests := []struct {
		name   string
		tenant domain.Tenant
		want   bool
	}{
		{"active subscription", domain.Tenant{Status: domain.StatusActive, SubscriptionStatus: domain.SubscriptionActive}, true},
		{"running trial", domain.Tenant{Status: domain.StatusActive, SubscriptionStatus: domain.SubscriptionTrial, TrialEndsAt: &future}, true},
		{"open-ended trial", domain.Tenant{Status: domain.StatusActive, SubscriptionStatus: domain.SubscriptionTrial}, true},
		{"ended trial", domain.Tenant{Status: domain.StatusActive, SubscriptionStatus: domain.SubscriptionTrial, TrialEndsAt: &past}, false},
		{"expired subscription", domain.Tenant{Status: domain.StatusActive, SubscriptionStatus: domain.SubscriptionExpired}, false},
		{"suspended", domain.Tenant{Status: domain.StatusSuspended, SubscriptionStatus: domain.SubscriptionActive}, false},
		{"inactive", domain.Tenant{Status: domain.StatusInactive, SubscriptionStatus: domain.SubscriptionActive}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tenant.AcceptsLogins(now))
		})
	}
}

func TestLoginAttemptStateAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	open := now.Add(10 * time.Minute)

	tests := []struct {
		name    string
		attempt domain.LoginAttempt
		want    domain.ThrottleState
	}{
		{"no failures", domain.LoginAttempt{WindowEndsAt: open}, domain.ThrottleOpen},
		{"few failures", domain.LoginAttempt{Failures: 2, WindowEndsAt: open}, domain.ThrottleOpen},
		{"one left", domain.LoginAttempt{Failures: 4, WindowEndsAt: open}, domain.ThrottleWarning},
		{"at limit", domain.LoginAttempt{Failures: 5, WindowEndsAt: open}, domain.ThrottleLocked},
		{"over limit", domain.LoginAttempt{Failures: 9, WindowEndsAt: open}, domain.ThrottleLocked},
		{"window elapsed", domain.LoginAttempt{Failures: 9, WindowEndsAt: now}, domain.ThrottleOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.attempt.StateAt(now, 5)
			assert.Equal(t, tt.want, got, got.String())
		})
	}
}

func TestThrottleKeys(t *testing.T) {
	a := domain.PlatformThrottleKey(" Root@Example.TEST ", "10.0.0.1")
	b := domain.PlatformThrottleKey("root@example.test", "10.0.0.1")
	require.Equal(t, a, b)
	require.Equal(t, "platform:root@example.test:10.0.0.1", a.String())

	// Same client, different tenants: separate counters.
	require.NotEqual(t,
		domain.TenantThrottleKey("t1", "10.0.0.1"),
		domain.TenantThrottleKey("t2", "10.0.0.1"),
	)
	require.NotEqual(t,
		domain.PlatformThrottleKey("t1", "10.0.0.1"),
		domain.TenantThrottleKey("t1", "10.0.0.1"),
	)
}

func TestCredentialUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Minute)

	assert.True(t, domain.Credential{ExpiresAt: now.Add(time.Second)}.Usable(now))
	assert.False(t, domain.Credential{ExpiresAt: now}.Usable(now), "expiry is exclusive")
	assert.False(t, domain.Credential{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}.Usable(now))
}

func TestVerifiedIdentityTenantFilter(t *testing.T) {
	tenant := domain.NewVerifiedIdentity(domain.Credential{
		ID: "c1", Realm: domain.RealmTenant, OwnerID: "u1", TenantID: "t1",
		Abilities: []string{"users.read"},
	})
	f, ok := tenant.TenantFilter()
	require.True(t, ok)
	require.Equal(t, "t1", f.TenantID())
	require.True(t, tenant.Can("users.read"))
	require.False(t, tenant.Can("users.write"))

	// A platform credential never yields a tenant filter, even if the
	// record carries a stray tenant id.
	platform := domain.NewVerifiedIdentity(domain.Credential{
		ID: "c2", Realm: domain.RealmPlatform, OwnerID: "a1", TenantID: "t1",
	})
	_, ok = platform.TenantFilter()
	require.False(t, ok)

	pf, ok := domain.PlatformTenantFilter(platform, "t9")
	require.True(t, ok)
	require.Equal(t, "t9", pf.TenantID())

	_, ok = domain.PlatformTenantFilter(tenant, "t9")
	require.False(t, ok, "tenant identities cannot address other tenants")
	_, ok = domain.PlatformTenantFilter(platform, "")
	require.False(t, ok)

	require.True(t, domain.TenantFilter{}.IsZero())
}

func TestVerifiedIdentityCopiesAbilities(t *testing.T) {
	abilities := []string{"a"}
	v := domain.NewVerifiedIdentity(domain.Credential{Realm: domain.RealmPlatform, Abilities: abilities})
	abilities[0] = "b"
	require.True(t, v.Can("a"))
}

func TestIdentityVariants(t *testing.T) {
	p := domain.PlatformIdentity(domain.PlatformAccount{ID: "a1"})
	require.Equal(t, domain.RealmPlatform, p.Realm())
	require.Equal(t, "a1", p.ID())
	require.Empty(t, p.TenantID())
	_, ok := p.Tenant()
	require.False(t, ok)

	u := domain.TenantIdentity(domain.TenantUser{ID: "u1", TenantID: "t1"})
	require.Equal(t, domain.RealmTenant, u.Realm())
	require.Equal(t, "u1", u.ID())
	require.Equal(t, "t1", u.TenantID())
	_, ok = u.Platform()
	require.False(t, ok)

	require.Equal(t, "t1", domain.TenantUser{ID: "u1", TenantID: "t1"}.Filter().TenantID())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@acme.test", domain.NormalizeEmail("  Alice@ACME.test "))
}
