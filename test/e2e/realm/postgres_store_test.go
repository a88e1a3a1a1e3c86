package realm_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/internal/realm/store/drivers/postgres"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
)

// setupPostgres starts a throwaway PostgreSQL server and returns its DSN.
func setupPostgres(t *testing.T) string {
	t.Helper()
	requireDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "realm",
				"POSTGRES_PASSWORD": "realm",
				"POSTGRES_DB":       "realm",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("postgres://realm:realm@%s:%s/realm?sslmode=disable", host, port.Port())
}

// TestPostgresDriver runs the login path against a real PostgreSQL server,
// covering migrations, the composite tenant foreign keys and the
// single-statement throttle upsert.
func TestPostgresDriver(t *testing.T) {
	dsn := setupPostgres(t)
	require.NoError(t, cryptox.LoadPepper(filepath.Join(t.TempDir(), "pepper")))
	ctx := t.Context()

	st, err := postgres.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ledger := &service.RevocationLedger{Store: st, TTL: time.Hour}
	prov := &service.ProvisioningService{Store: st, Ledger: ledger}
	auth := &service.Authenticator{
		Store:      st,
		Throttle:   service.NewLoginThrottle(st, 3, time.Minute),
		Aggregator: &service.Aggregator{Store: st},
		Ledger:     ledger,
	}
	operator := domain.NewVerifiedIdentity(domain.Credential{
		ID: "operator", Realm: domain.RealmPlatform, OwnerID: "operator",
	})

	acme, err := prov.CreateTenant(ctx, service.CreateTenantInput{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	globex, err := prov.CreateTenant(ctx, service.CreateTenantInput{Name: "Globex", Slug: "globex"})
	require.NoError(t, err)

	role, err := prov.CreateTenantRole(ctx, operator, acme.ID, service.CreateRoleInput{
		Slug: "member", Name: "Member", Abilities: []string{"users.read"},
	})
	require.NoError(t, err)
	user, err := prov.CreateTenantUser(ctx, operator, acme.ID, service.CreateIdentityInput{
		Name: "Alice", Email: "alice@acme.test", Password: userPassword, RoleIDs: []string{role.ID},
	})
	require.NoError(t, err)

	otherRole, err := prov.CreateTenantRole(ctx, operator, globex.ID, service.CreateRoleInput{
		Slug: "member", Name: "Member",
	})
	require.NoError(t, err)
	err = prov.AssignTenantRole(ctx, operator, acme.ID, user.ID, otherRole.ID)
	require.ErrorIs(t, err, service.ErrCrossTenantRole)

	res, err := auth.Login(ctx, service.LoginRequest{
		Realm: domain.RealmTenant, Email: "alice@acme.test", Password: userPassword,
		TenantID: acme.ID, Client: "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"users.read"}, res.Abilities)

	for range 3 {
		_, err = auth.Login(ctx, service.LoginRequest{
			Realm: domain.RealmTenant, Email: "alice@acme.test", Password: "wrong",
			TenantID: acme.ID, Client: "10.0.0.2",
		})
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	}
	_, err = auth.Login(ctx, service.LoginRequest{
		Realm: domain.RealmTenant, Email: "alice@acme.test", Password: userPassword,
		TenantID: acme.ID, Client: "10.0.0.2",
	})
	require.ErrorIs(t, err, service.ErrRateLimited)
}
