package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStoreFromDB(db), mock
}

func TestQueriesUseDollarPlaceholders(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM tenants WHERE slug = \$1`).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "slug", "status", "subscription_status",
			"trial_ends_at", "subscription_ends_at", "created_at", "updated_at",
		}).AddRow("t1", "Acme", "acme", "active", "trial", now.Add(time.Hour), nil, now, now))

	tenant, err := st.Tenants().GetTenantBySlug(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, "t1", tenant.ID)
	require.Equal(t, domain.SubscriptionTrial, tenant.SubscriptionStatus)
	require.NotNil(t, tenant.TrialEndsAt)
	require.Nil(t, tenant.SubscriptionEndsAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementAttemptIsSingleStatement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, mock := newMockStore(t)
	now := time.Now().UTC()
	key := domain.TenantThrottleKey("t1", "1.2.3.4")

	mock.ExpectQuery(`(?s)INSERT INTO login_attempts .+ ON CONFLICT \(realm, scope_key, client_key\) DO UPDATE .+ \$8 .+ RETURNING`).
		WithArgs("tenant", "t1", "1.2.3.4", now.Add(time.Minute), now, now, now, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"realm", "scope_key", "client_key", "failures", "window_ends_at", "updated_at",
		}).AddRow("tenant", "t1", "1.2.3.4", 3, now.Add(time.Minute), now))

	attempt, err := st.LoginAttempts().IncrementAttempt(ctx, key, 5, now, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 3, attempt.Failures)
	require.Equal(t, key, attempt.Key)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintErrorsAreMapped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, mock := newMockStore(t)
	filter := domain.TenantUser{TenantID: "t1"}.Filter()

	mock.ExpectExec(`INSERT INTO tenant_user_roles`).
		WillReturnError(&pq.Error{Code: codeForeignKeyViolation})
	err := st.TenantRoles().AssignRole(ctx, filter, "u1", "r-other-tenant")
	require.ErrorIs(t, err, store.ErrConflict)

	mock.ExpectExec(`INSERT INTO tenants`).
		WillReturnError(&pq.Error{Code: codeUniqueViolation})
	err = st.Tenants().CreateTenant(ctx, domain.Tenant{ID: "t2", Slug: "acme"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	t.Parallel()

	st, mock := newMockStore(t)
	mock.ExpectPing()

	require.NoError(t, st.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
