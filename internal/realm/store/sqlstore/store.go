// Package sqlstore implements the store interfaces on top of sqlx. Queries
// are written with ? placeholders and rebound for the driver in use, so the
// sqlite and postgres drivers share every repository.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/jmoiron/sqlx"
)

// Migrator applies the driver's embedded schema to db.
type Migrator func(db *sql.DB) error

// Dialect carries the driver specific bits the shared queries cannot express.
type Dialect struct {
	Name                  string
	IsUniqueViolation     func(error) bool
	IsForeignKeyViolation func(error) bool
}

type Store struct {
	db      *sqlx.DB
	dialect Dialect
	migrate Migrator
}

// New wraps an open database. The driver packages are the usual callers.
func New(db *sqlx.DB, dialect Dialect, migrate Migrator) *Store {
	return &Store{db: db, dialect: dialect, migrate: migrate}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ApplyMigrations() error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(s.db.DB)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx, s.dialect), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback after a successful commit returns sql.ErrTxDone, which we ignore.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) conn() conn { return conn{q: s.db, d: s.dialect} }

func (s *Store) PlatformAccounts() store.PlatformAccounts {
	return &platformAccountsRepo{s.conn()}
}
func (s *Store) PlatformRoles() store.PlatformRoles { return &platformRolesRepo{s.conn()} }
func (s *Store) Tenants() store.Tenants             { return &tenantsRepo{s.conn()} }
func (s *Store) TenantUsers() store.TenantUsers     { return &tenantUsersRepo{s.conn()} }
func (s *Store) TenantRoles() store.TenantRoles     { return &tenantRolesRepo{s.conn()} }
func (s *Store) Credentials() store.Credentials     { return &credentialsRepo{s.conn()} }
func (s *Store) LoginAttempts() store.LoginAttempts { return &loginAttemptsRepo{s.conn()} }

// conn is the query surface shared by every repository. q is either the
// root *sqlx.DB or a *sqlx.Tx.
type conn struct {
	q sqlx.ExtContext
	d Dialect
}

func (c conn) get(ctx context.Context, dest any, query string, args ...any) error {
	return mapNotFound(sqlx.GetContext(ctx, c.q, dest, c.q.Rebind(query), args...))
}

func (c conn) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, c.q, dest, c.q.Rebind(query), args...)
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.q.ExecContext(ctx, c.q.Rebind(query), args...)
	if err != nil {
		return nil, c.mapConstraint(err)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly one row.
func (c conn) execOne(ctx context.Context, query string, args ...any) error {
	res, err := c.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c conn) mapConstraint(err error) error {
	switch {
	case c.d.IsUniqueViolation != nil && c.d.IsUniqueViolation(err):
		return errors.Join(store.ErrAlreadyExists, err)
	case c.d.IsForeignKeyViolation != nil && c.d.IsForeignKeyViolation(err):
		return errors.Join(store.ErrConflict, err)
	default:
		return err
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// joinAbilities and splitAbilities store ability sets as a single
// space-delimited column.
func joinAbilities(abilities []string) string {
	return strings.Join(splitAbilities(strings.Join(abilities, " ")), " ")
}

func splitAbilities(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Fields(s)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
