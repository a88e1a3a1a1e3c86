package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict is returned when a write would break a cross-table
	// invariant, such as attaching a role from another tenant.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so a Tx can hand out
// the same repositories bound to the transaction.
type Store interface {
	PlatformAccounts() PlatformAccounts
	PlatformRoles() PlatformRoles
	Tenants() Tenants
	TenantUsers() TenantUsers
	TenantRoles() TenantRoles
	Credentials() Credentials
	LoginAttempts() LoginAttempts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type PlatformAccounts interface {
	// CreateAccount inserts a new account. Email must already be normalized.
	CreateAccount(ctx context.Context, a domain.PlatformAccount) error

	GetAccountByID(ctx context.Context, id string) (domain.PlatformAccount, error)

	// GetAccountByEmail looks up an account by its normalized email.
	GetAccountByEmail(ctx context.Context, email string) (domain.PlatformAccount, error)

	UpdateAccountStatus(ctx context.Context, id string, status domain.Status, at time.Time) error

	// TouchLastLogin stamps an active account. An account that is missing or
	// no longer active is ErrNotFound.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// IsEmpty returns true if no platform account exists yet.
	IsEmpty(ctx context.Context) (bool, error)
}

type PlatformRoles interface {
	CreateRole(ctx context.Context, r domain.PlatformRole) error
	GetRoleByID(ctx context.Context, id string) (domain.PlatformRole, error)
	GetRoleBySlug(ctx context.Context, slug string) (domain.PlatformRole, error)

	// AssignRole attaches a platform role to a platform account. Assigning
	// the same role twice is a no-op.
	AssignRole(ctx context.Context, accountID, roleID string) error

	// ListAccountRoles returns every role attached to the account.
	ListAccountRoles(ctx context.Context, accountID string) ([]domain.PlatformRole, error)
}

type Tenants interface {
	CreateTenant(ctx context.Context, t domain.Tenant) error
	GetTenantByID(ctx context.Context, id string) (domain.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (domain.Tenant, error)

	// UpdateTenant writes status, subscription and trial fields.
	UpdateTenant(ctx context.Context, t domain.Tenant) error
}

// TenantUsers reads are scoped by a TenantFilter so a caller cannot reach a
// user of another tenant by id.
type TenantUsers interface {
	CreateUser(ctx context.Context, u domain.TenantUser) error

	GetUserByID(ctx context.Context, f domain.TenantFilter, id string) (domain.TenantUser, error)

	// GetUserByEmail resolves a login identifier within one tenant.
	GetUserByEmail(ctx context.Context, tenantID, email string) (domain.TenantUser, error)

	ListUsers(ctx context.Context, f domain.TenantFilter) ([]domain.TenantUser, error)

	UpdateUserStatus(ctx context.Context, f domain.TenantFilter, id string, status domain.Status, at time.Time) error

	// TouchLastLogin stamps an active user; ErrNotFound otherwise.
	TouchLastLogin(ctx context.Context, f domain.TenantFilter, id string, at time.Time) error
}

type TenantRoles interface {
	CreateRole(ctx context.Context, r domain.TenantRole) error
	GetRoleByID(ctx context.Context, f domain.TenantFilter, id string) (domain.TenantRole, error)

	// RoleTenantID reports which tenant owns a role. It is an administrative
	// lookup for platform operations and must not back tenant-realm reads.
	RoleTenantID(ctx context.Context, roleID string) (string, error)

	// AssignRole attaches a role to a user of the same tenant. The schema
	// rejects a cross-tenant pair with ErrConflict.
	AssignRole(ctx context.Context, f domain.TenantFilter, userID, roleID string) error

	ListUserRoles(ctx context.Context, f domain.TenantFilter, userID string) ([]domain.TenantRole, error)
}

type Credentials interface {
	// CreateCredential appends an issued credential to the ledger.
	CreateCredential(ctx context.Context, c domain.Credential) error

	// GetCredentialByHash looks a credential up by token fingerprint.
	GetCredentialByHash(ctx context.Context, hash string) (domain.Credential, error)

	// RevokeCredential sets revoked_at if it is not set yet and reports
	// whether this call did it. Revoking an already revoked or unknown
	// credential is not an error.
	RevokeCredential(ctx context.Context, id string, at time.Time) (bool, error)

	// RevokeAllForOwner revokes every active credential of one identity and
	// returns how many were revoked.
	RevokeAllForOwner(ctx context.Context, realm domain.Realm, ownerID string, at time.Time) (int64, error)

	// TouchLastUsed records when a credential last authenticated a request.
	TouchLastUsed(ctx context.Context, id string, at time.Time) error

	// DeleteStaleCredentials removes credentials that expired or were revoked
	// before the cutoff.
	DeleteStaleCredentials(ctx context.Context, cutoff time.Time) (int64, error)
}

type LoginAttempts interface {
	// GetAttempt returns the counter for key, or ErrNotFound.
	GetAttempt(ctx context.Context, key domain.ThrottleKey) (domain.LoginAttempt, error)

	// IncrementAttempt charges one attempt in a single atomic statement and
	// returns the counter after the charge. When the stored window has
	// elapsed the counter restarts at one; the charge that reaches
	// maxAttempts pushes the window to windowEndsAt so the lockout runs for a
	// full window from the locking attempt.
	IncrementAttempt(
		ctx context.Context,
		key domain.ThrottleKey,
		maxAttempts int,
		now, windowEndsAt time.Time,
	) (domain.LoginAttempt, error)

	// ReleaseAttempt takes back one charged attempt that never reached a
	// verdict.
	ReleaseAttempt(ctx context.Context, key domain.ThrottleKey) error

	// ResetAttempts clears the counter for key.
	ResetAttempts(ctx context.Context, key domain.ThrottleKey) error

	// DeleteElapsedAttempts removes counters whose window ended before cutoff.
	DeleteElapsedAttempts(ctx context.Context, cutoff time.Time) (int64, error)
}
