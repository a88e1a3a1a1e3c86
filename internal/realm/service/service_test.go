package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/internal/realm/store/drivers/sqlite"
	"github.com/aussiebroadwan/realmguard/internal/realm/store/sqlstore"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "realmguard-service")
	if err != nil {
		panic(err)
	}
	if err := cryptox.LoadPepper(filepath.Join(dir, "pepper")); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *sqlstore.Store
	clock    *testClock
	throttle *LoginThrottle
	ledger   *RevocationLedger
	auth     *Authenticator
	verifier *CredentialVerifier
	prov     *ProvisioningService
	operator domain.VerifiedIdentity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}

	throttle := NewLoginThrottle(st, 5, 15*time.Minute)
	throttle.Clock = clock.Now
	ledger := &RevocationLedger{Store: st, TTL: time.Hour, Clock: clock.Now}

	return &fixture{
		store:    st,
		clock:    clock,
		throttle: throttle,
		ledger:   ledger,
		auth: &Authenticator{
			Store:      st,
			Throttle:   throttle,
			Aggregator: &Aggregator{Store: st},
			Ledger:     ledger,
			Clock:      clock.Now,
		},
		verifier: &CredentialVerifier{Store: st, Clock: clock.Now},
		prov:     &ProvisioningService{Store: st, Ledger: ledger, Clock: clock.Now},
		operator: domain.NewVerifiedIdentity(domain.Credential{
			ID:      "operator-credential",
			Realm:   domain.RealmPlatform,
			OwnerID: "operator",
		}),
	}
}

func (f *fixture) tenant(t *testing.T, slug string, mutate ...func(*CreateTenantInput)) domain.Tenant {
	t.Helper()

	in := CreateTenantInput{
		Name:               slug,
		Slug:               slug,
		SubscriptionStatus: domain.SubscriptionActive,
	}
	for _, m := range mutate {
		m(&in)
	}
	tenant, err := f.prov.CreateTenant(context.Background(), in)
	require.NoError(t, err)
	return tenant
}

func (f *fixture) tenantUser(t *testing.T, tenantID, email string, roleIDs ...string) domain.TenantUser {
	t.Helper()

	user, err := f.prov.CreateTenantUser(context.Background(), f.operator, tenantID, CreateIdentityInput{
		Name:     email,
		Email:    email,
		Password: testPassword,
		RoleIDs:  roleIDs,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) tenantRole(t *testing.T, tenantID, slug string, abilities ...string) domain.TenantRole {
	t.Helper()

	role, err := f.prov.CreateTenantRole(context.Background(), f.operator, tenantID, CreateRoleInput{
		Slug:      slug,
		Name:      slug,
		Abilities: abilities,
	})
	require.NoError(t, err)
	return role
}

func (f *fixture) platformAccount(t *testing.T, email string, abilities ...string) domain.PlatformAccount {
	t.Helper()

	ctx := context.Background()
	role, err := f.prov.CreatePlatformRole(ctx, CreateRoleInput{
		Slug:      "role-" + email,
		Name:      "role for " + email,
		Abilities: abilities,
	})
	require.NoError(t, err)

	account, err := f.prov.CreatePlatformAccount(ctx, CreateIdentityInput{
		Name:     email,
		Email:    email,
		Password: testPassword,
		RoleIDs:  []string{role.ID},
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) tenantLogin(tenantID, email, password, client string) (LoginResult, error) {
	return f.auth.Login(context.Background(), LoginRequest{
		Realm:    domain.RealmTenant,
		Email:    email,
		Password: password,
		TenantID: tenantID,
		Client:   client,
	})
}

func (f *fixture) platformLogin(email, password, client string) (LoginResult, error) {
	return f.auth.Login(context.Background(), LoginRequest{
		Realm:    domain.RealmPlatform,
		Email:    email,
		Password: password,
		Client:   client,
	})
}

// interceptStore runs a hook right after selected reads so a test can change
// the database between a service's read and its write.
type interceptStore struct {
	store.Store
	afterUserByEmail func(domain.TenantUser)
	afterCredential  func(domain.Credential)
}

func (s *interceptStore) TenantUsers() store.TenantUsers {
	return interceptUsers{TenantUsers: s.Store.TenantUsers(), after: s.afterUserByEmail}
}

func (s *interceptStore) Credentials() store.Credentials {
	return interceptCredentials{Credentials: s.Store.Credentials(), after: s.afterCredential}
}

type interceptUsers struct {
	store.TenantUsers
	after func(domain.TenantUser)
}

func (u interceptUsers) GetUserByEmail(ctx context.Context, tenantID, email string) (domain.TenantUser, error) {
	user, err := u.TenantUsers.GetUserByEmail(ctx, tenantID, email)
	if err == nil && u.after != nil {
		u.after(user)
	}
	return user, err
}

type interceptCredentials struct {
	store.Credentials
	after func(domain.Credential)
}

func (c interceptCredentials) GetCredentialByHash(ctx context.Context, hash string) (domain.Credential, error) {
	cred, err := c.Credentials.GetCredentialByHash(ctx, hash)
	if err == nil && c.after != nil {
		c.after(cred)
	}
	return cred, err
}
