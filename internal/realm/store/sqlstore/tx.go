package sqlstore

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/jmoiron/sqlx"
)

type txStore struct {
	tx *sqlx.Tx
	d  Dialect
}

func newTx(tx *sqlx.Tx, d Dialect) *txStore {
	return &txStore{tx: tx, d: d}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // the outer DB stays open

// Ping is a no-op for transactions; the connection is already held.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx

func (t *txStore) conn() conn { return conn{q: t.tx, d: t.d} }

func (t *txStore) PlatformAccounts() store.PlatformAccounts {
	return &platformAccountsRepo{t.conn()}
}
func (t *txStore) PlatformRoles() store.PlatformRoles { return &platformRolesRepo{t.conn()} }
func (t *txStore) Tenants() store.Tenants             { return &tenantsRepo{t.conn()} }
func (t *txStore) TenantUsers() store.TenantUsers     { return &tenantUsersRepo{t.conn()} }
func (t *txStore) TenantRoles() store.TenantRoles     { return &tenantRolesRepo{t.conn()} }
func (t *txStore) Credentials() store.Credentials     { return &credentialsRepo{t.conn()} }
func (t *txStore) LoginAttempts() store.LoginAttempts { return &loginAttemptsRepo{t.conn()} }
