package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

type LoginRequest struct {
	Realm    domain.Realm
	Email    string
	Password string
	TenantID string // tenant realm only
	// TenantSlug names the tenant when TenantID is empty.
	TenantSlug string
	Client     string // client address used for throttling
}

type LoginResult struct {
	Token      string // opaque bearer value, only ever returned here
	Credential domain.Credential
	Identity   domain.Identity
	Tenant     *domain.Tenant // nil for the platform realm
	Abilities  []string
}

// Authenticator validates a login against exactly one realm and mints a
// credential scoped to that realm.
type Authenticator struct {
	Store      store.Store
	Throttle   *LoginThrottle
	Aggregator *Aggregator
	Ledger     *RevocationLedger
	Clock      func() time.Time
}

func (a *Authenticator) now() time.Time {
	if a.Clock != nil {
		return a.Clock().UTC()
	}
	return time.Now().UTC()
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck runs one argon2 verification so a login for an unknown
// identity costs the same as one with a wrong password.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = cryptox.HashPassword("realmguard-dummy-password")
	})
	_ = cryptox.VerifyPassword(password, dummyHash)
}

// loginFailure carries the internal reason for a rejected login. Callers
// only ever see ErrInvalidCredentials.
type loginFailure struct {
	reason string
}

func (f *loginFailure) Error() string        { return ErrInvalidCredentials.Error() + ": " + f.reason }
func (f *loginFailure) Is(target error) bool { return target == ErrInvalidCredentials }

func reject(reason string) error { return &loginFailure{reason: reason} }

// Login authenticates req. It returns ErrInvalidCredentials for every
// identity, secret, tenant and status problem, a *RateLimitedError while the
// throttle key is locked, and ErrUnavailable when the store fails.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	now := a.now()

	if !req.Realm.Valid() {
		return LoginResult{}, ErrInvalidCredentials
	}
	req.Email = domain.NormalizeEmail(req.Email)
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.TenantSlug = strings.ToLower(strings.TrimSpace(req.TenantSlug))

	if req.Realm == domain.RealmTenant && req.TenantID == "" && req.TenantSlug != "" {
		if err := a.resolveTenantSlug(ctx, &req); err != nil {
			return LoginResult{}, err
		}
	}

	key := throttleKey(req)

	// A locked key is answered before the identity store is touched.
	status, err := a.Throttle.Check(ctx, key)
	if err != nil {
		return LoginResult{}, err
	}
	if status.State == domain.ThrottleLocked {
		return LoginResult{}, a.throttled(ctx, key, status.RetryAfter)
	}

	reserved, err := a.Throttle.Reserve(ctx, key)
	var limited *RateLimitedError
	if errors.As(err, &limited) {
		return LoginResult{}, a.throttled(ctx, key, limited.RetryAfter)
	}
	if err != nil {
		return LoginResult{}, err
	}

	identity, tenant, err := a.authenticate(ctx, req, now)
	if err != nil {
		var failure *loginFailure
		if !errors.As(err, &failure) {
			if relErr := a.Throttle.Release(ctx, key); relErr != nil {
				l.Error("login throttle release failed", slog.Any("error", relErr))
			}
			return LoginResult{}, err
		}

		l.Warn("login failed",
			slog.String("realm", req.Realm.String()),
			slog.String("scope_key", key.ScopeKey),
			slog.String("client", key.Client),
			slog.String("reason", failure.reason),
		)
		a.Throttle.Escalated(ctx, key, reserved)
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := a.Throttle.Reset(ctx, key); err != nil {
		return LoginResult{}, err
	}

	abilities, err := a.Aggregator.ResolveAbilities(ctx, identity)
	if err != nil {
		return LoginResult{}, err
	}

	var (
		token string
		cred  domain.Credential
	)
	// The owner row is stamped before the credential is written. The stamp
	// only matches an active owner and holds the row until commit, so a
	// concurrent status change either sees this credential and revokes it or
	// makes the stamp miss.
	err = a.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := touchLastLogin(ctx, tx, identity, now); err != nil {
			return err
		}
		var err error
		token, cred, err = a.Ledger.issue(ctx, tx, identity, abilities, now)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		l.Warn("login failed",
			slog.String("realm", req.Realm.String()),
			slog.String("owner_id", identity.ID()),
			slog.String("reason", "status changed during login"),
		)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, unavailable(err)
	}

	l.Info("login succeeded",
		slog.String("realm", req.Realm.String()),
		slog.String("owner_id", identity.ID()),
		slog.String("tenant_id", identity.TenantID()),
		slog.String("credential_id", cred.ID),
	)

	return LoginResult{
		Token:      token,
		Credential: cred,
		Identity:   identity,
		Tenant:     tenant,
		Abilities:  abilities,
	}, nil
}

func (a *Authenticator) throttled(ctx context.Context, key domain.ThrottleKey, retryAfter time.Duration) error {
	slogx.FromContext(ctx).Warn("login rejected by throttle",
		slog.String("realm", key.Realm.String()),
		slog.String("scope_key", key.ScopeKey),
		slog.String("client", key.Client),
	)
	return &RateLimitedError{RetryAfter: retryAfter}
}

// resolveTenantSlug fills req.TenantID from req.TenantSlug. An unknown slug
// leaves it empty and the login fails like any other unknown tenant.
func (a *Authenticator) resolveTenantSlug(ctx context.Context, req *LoginRequest) error {
	tenant, err := a.Store.Tenants().GetTenantBySlug(ctx, req.TenantSlug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return unavailable(err)
	}
	req.TenantID = tenant.ID
	return nil
}

func throttleKey(req LoginRequest) domain.ThrottleKey {
	if req.Realm == domain.RealmTenant {
		if req.TenantID == "" && req.TenantSlug != "" {
			return domain.TenantThrottleKey("slug:"+req.TenantSlug, req.Client)
		}
		return domain.TenantThrottleKey(req.TenantID, req.Client)
	}
	return domain.PlatformThrottleKey(req.Email, req.Client)
}

// authenticate resolves the identity, checks the secret and then applies the
// status gates. Gate failures are only evaluated after a password match.
func (a *Authenticator) authenticate(
	ctx context.Context,
	req LoginRequest,
	now time.Time,
) (domain.Identity, *domain.Tenant, error) {
	if req.Email == "" || req.Password == "" {
		return domain.Identity{}, nil, reject("missing identifier or secret")
	}

	switch req.Realm {
	case domain.RealmPlatform:
		account, err := a.Store.PlatformAccounts().GetAccountByEmail(ctx, req.Email)
		if errors.Is(err, store.ErrNotFound) {
			burnPasswordCheck(req.Password)
			return domain.Identity{}, nil, reject("unknown account")
		}
		if err != nil {
			return domain.Identity{}, nil, unavailable(err)
		}
		if cryptox.VerifyPassword(req.Password, account.PasswordHash) != nil {
			return domain.Identity{}, nil, reject("password mismatch")
		}
		if !account.Active() {
			return domain.Identity{}, nil, reject("account " + string(account.Status))
		}
		return domain.PlatformIdentity(account), nil, nil

	case domain.RealmTenant:
		if req.TenantID == "" {
			burnPasswordCheck(req.Password)
			return domain.Identity{}, nil, reject("missing tenant")
		}
		tenant, err := a.Store.Tenants().GetTenantByID(ctx, req.TenantID)
		if errors.Is(err, store.ErrNotFound) {
			burnPasswordCheck(req.Password)
			return domain.Identity{}, nil, reject("unknown tenant")
		}
		if err != nil {
			return domain.Identity{}, nil, unavailable(err)
		}

		user, err := a.Store.TenantUsers().GetUserByEmail(ctx, tenant.ID, req.Email)
		if errors.Is(err, store.ErrNotFound) {
			burnPasswordCheck(req.Password)
			return domain.Identity{}, nil, reject("unknown user for tenant")
		}
		if err != nil {
			return domain.Identity{}, nil, unavailable(err)
		}
		if user.TenantID != tenant.ID {
			return domain.Identity{}, nil, reject("user bound to another tenant")
		}
		if cryptox.VerifyPassword(req.Password, user.PasswordHash) != nil {
			return domain.Identity{}, nil, reject("password mismatch")
		}

		switch {
		case tenant.Status != domain.StatusActive:
			return domain.Identity{}, nil, reject("tenant " + string(tenant.Status))
		case !user.Active():
			return domain.Identity{}, nil, reject("user " + string(user.Status))
		case tenant.SubscriptionBlocked(now):
			return domain.Identity{}, nil, reject("subscription " + string(tenant.SubscriptionStatus))
		}
		return domain.TenantIdentity(user), &tenant, nil

	default:
		return domain.Identity{}, nil, reject("unknown realm")
	}
}

func touchLastLogin(ctx context.Context, tx store.Store, id domain.Identity, at time.Time) error {
	switch id.Realm() {
	case domain.RealmPlatform:
		account, _ := id.Platform()
		return tx.PlatformAccounts().TouchLastLogin(ctx, account.ID, at)
	case domain.RealmTenant:
		user, _ := id.Tenant()
		return tx.TenantUsers().TouchLastLogin(ctx, user.Filter(), user.ID, at)
	default:
		return domain.ErrUnknownRealm
	}
}
