package realm_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

// TestHealth verifies the health endpoints answer once the container is up.
func TestHealth(t *testing.T) {
	client := setupRealmContainer(t, nil)

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["database"])
}

// TestBootstrapOnlyOnce verifies bootstrap cannot be repeated.
func TestBootstrapOnlyOnce(t *testing.T) {
	client := setupRealmContainer(t, relaxedLimits())
	bootstrapOperator(t, client)

	_, err := client.Bootstrap(t.Context(), bootstrapToken, realmsdk.BootstrapRequest{
		Name: "Another", Email: "another@platform.test", Password: adminPassword,
	})
	assertAPIError(t, err, http.StatusConflict, realmsdk.CodeConflict)
}

// TestTenantLifecycle drives discovery, login, scoped reads, logout and
// revocation through the public API.
func TestTenantLifecycle(t *testing.T) {
	client := setupRealmContainer(t, relaxedLimits())
	op := bootstrapOperator(t, client)
	ctx := t.Context()

	tenant, user := provisionTenant(t, op, "acme", "alice@acme.test")

	found, err := client.DiscoverTenant(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, tenant.ID, found.ID)

	session, login, err := client.Login(ctx, realmsdk.RealmTenant, realmsdk.LoginRequest{
		Email: "Alice@Acme.test", Password: userPassword, TenantID: found.ID,
	})
	require.NoError(t, err)
	assertTokenResponse(t, &login.TokenResponse, realmsdk.RealmTenant)
	require.Equal(t, []string{"users.read"}, login.Abilities)
	require.Equal(t, user.ID, login.User.ID)

	users, err := session.ListTenantUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	// Refresh swaps the session's token; the old one stops working.
	old := session.Token()
	_, err = session.Refresh(ctx)
	require.NoError(t, err)
	_, err = client.NewSession(realmsdk.RealmTenant, old).Me(ctx)
	assertAPIError(t, err, http.StatusUnauthorized, realmsdk.CodeUnauthenticated)

	require.NoError(t, session.Logout(ctx))
	_, err = session.Me(ctx)
	assertAPIError(t, err, http.StatusUnauthorized, realmsdk.CodeUnauthenticated)
}

// TestRealmsAreIsolated verifies credentials never cross realms or tenants.
func TestRealmsAreIsolated(t *testing.T) {
	client := setupRealmContainer(t, relaxedLimits())
	op := bootstrapOperator(t, client)
	ctx := t.Context()

	acme, _ := provisionTenant(t, op, "acme", "shared@example.test")
	globex, _ := provisionTenant(t, op, "globex", "shared@example.test")

	acmeSession, _, err := client.Login(ctx, realmsdk.RealmTenant, realmsdk.LoginRequest{
		Email: "shared@example.test", Password: userPassword, TenantID: acme.ID,
	})
	require.NoError(t, err)

	// Same email in another tenant is a different user.
	_, globexLogin, err := client.Login(ctx, realmsdk.RealmTenant, realmsdk.LoginRequest{
		Email: "shared@example.test", Password: userPassword, TenantID: globex.ID,
	})
	require.NoError(t, err)
	require.Equal(t, globex.ID, globexLogin.User.TenantID)

	users, err := acmeSession.ListTenantUsers(ctx)
	require.NoError(t, err)
	for _, u := range users {
		require.Equal(t, acme.ID, u.TenantID)
	}

	// A platform login with tenant credentials fails like any bad password.
	_, _, err = client.Login(ctx, realmsdk.RealmPlatform, realmsdk.LoginRequest{
		Email: "shared@example.test", Password: userPassword,
	})
	assertAPIError(t, err, http.StatusUnprocessableEntity, realmsdk.CodeInvalidCredentials)

	// Tenant credential presented to the platform API.
	_, err = client.NewSession(realmsdk.RealmPlatform, acmeSession.Token()).GetTenant(ctx, acme.ID)
	assertAPIError(t, err, http.StatusUnauthorized, realmsdk.CodeUnauthenticated)

	// Platform credential presented to the tenant realm.
	_, err = client.NewSession(realmsdk.RealmTenant, op.Token()).Me(ctx)
	assertAPIError(t, err, http.StatusUnauthorized, realmsdk.CodeUnauthenticated)
}

// TestLoginThrottle runs with production limits to check lockout and the
// Retry-After hint.
func TestLoginThrottle(t *testing.T) {
	client := setupRealmContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS": "1000",
		"RATELIMIT_STRICT_BURST":    "1000",
	})
	op := bootstrapOperator(t, client)
	tenant, _ := provisionTenant(t, op, "acme", "alice@acme.test")
	ctx := t.Context()

	login := func(pw string) error {
		_, _, err := client.Login(ctx, realmsdk.RealmTenant, realmsdk.LoginRequest{
			Email: "alice@acme.test", Password: pw, TenantID: tenant.ID,
		})
		return err
	}

	for i := range 5 {
		err := login("wrong-password")
		assertAPIError(t, err, http.StatusUnprocessableEntity, realmsdk.CodeInvalidCredentials)
		t.Logf("failed attempt %d rejected", i+1)
	}

	apiErr := assertAPIError(t, login(userPassword), http.StatusTooManyRequests, realmsdk.CodeRateLimited)
	require.Positive(t, apiErr.RetryAfter)
}
