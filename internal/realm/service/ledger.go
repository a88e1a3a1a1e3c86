package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
	"github.com/aussiebroadwan/realmguard/pkg/idx"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

const DefaultCredentialTTL = 12 * time.Hour

// RevocationLedger owns the lifecycle of issued credentials. Each credential
// is its own row, so revoking one never touches another and a bulk revoke is
// a single indexed update on (realm, owner_id).
type RevocationLedger struct {
	Store store.Store
	TTL   time.Duration
	Clock func() time.Time
}

func (r *RevocationLedger) now() time.Time {
	if r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}

func (r *RevocationLedger) ttl() time.Duration {
	if r.TTL <= 0 {
		return DefaultCredentialTTL
	}
	return r.TTL
}

// issue mints an opaque token for id and appends its fingerprint to the
// ledger through q, which may be a transaction.
func (r *RevocationLedger) issue(
	ctx context.Context,
	q store.Store,
	id domain.Identity,
	abilities []string,
	now time.Time,
) (string, domain.Credential, error) {
	token, fingerprint, err := cryptox.NewCredentialToken()
	if err != nil {
		return "", domain.Credential{}, err
	}

	cred := domain.Credential{
		ID:        idx.New().String(),
		TokenHash: fingerprint,
		Realm:     id.Realm(),
		OwnerID:   id.ID(),
		TenantID:  id.TenantID(),
		Abilities: abilities,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl()),
	}
	if err := q.Credentials().CreateCredential(ctx, cred); err != nil {
		return "", domain.Credential{}, err
	}
	return token, cred, nil
}

// Revoke marks one credential revoked. Repeated calls are no-ops.
func (r *RevocationLedger) Revoke(ctx context.Context, credentialID string) error {
	if _, err := r.Store.Credentials().RevokeCredential(ctx, credentialID, r.now()); err != nil {
		return unavailable(err)
	}
	return nil
}

// Logout revokes the credential identified by raw, and nothing else. A
// credential of this realm that is already revoked is accepted again so a
// retried logout reads the same; unknown or other-realm values are
// ErrUnauthenticated.
func (r *RevocationLedger) Logout(ctx context.Context, raw string, realm domain.Realm) error {
	cred, err := lookupCredential(ctx, r.Store, raw)
	if err != nil {
		return err
	}
	if cred.Realm != realm {
		slogx.FromContext(ctx).Warn("logout with credential of another realm",
			slog.String("credential_id", cred.ID),
			slog.String("credential_realm", cred.Realm.String()),
			slog.String("required_realm", realm.String()),
		)
		return ErrUnauthenticated
	}
	if cred.Revoked() {
		return nil
	}
	if err := r.Revoke(ctx, cred.ID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("credential revoked",
		slog.String("credential_id", cred.ID),
		slog.String("realm", cred.Realm.String()),
		slog.String("owner_id", cred.OwnerID),
	)
	return nil
}

// RevokeAll revokes every active credential of one identity and reports how
// many were affected.
func (r *RevocationLedger) RevokeAll(ctx context.Context, realm domain.Realm, ownerID string) (int64, error) {
	n, err := r.revokeAll(ctx, r.Store, realm, ownerID)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// revokeAll is RevokeAll through q, so a caller can pair it with the status
// change that triggered it.
func (r *RevocationLedger) revokeAll(ctx context.Context, q store.Store, realm domain.Realm, ownerID string) (int64, error) {
	n, err := q.Credentials().RevokeAllForOwner(ctx, realm, ownerID, r.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slogx.FromContext(ctx).Info("revoked all credentials for identity",
			slog.String("realm", realm.String()),
			slog.String("owner_id", ownerID),
			slog.Int64("revoked", n),
		)
	}
	return n, nil
}

// Rotate exchanges a usable credential for a fresh one carrying the same
// ability snapshot and tenant scope, and revokes the old one. The revoke
// comes first in the transaction; when a concurrent rotation or logout got
// there before, nothing is issued and the caller is ErrUnauthenticated.
func (r *RevocationLedger) Rotate(ctx context.Context, raw string, realm domain.Realm) (string, domain.Credential, error) {
	now := r.now()

	old, err := lookupCredential(ctx, r.Store, raw)
	if err != nil {
		return "", domain.Credential{}, err
	}
	if old.Realm != realm || !old.Usable(now) {
		return "", domain.Credential{}, ErrUnauthenticated
	}

	token, fingerprint, err := cryptox.NewCredentialToken()
	if err != nil {
		return "", domain.Credential{}, err
	}
	fresh := domain.Credential{
		ID:        idx.New().String(),
		TokenHash: fingerprint,
		Realm:     old.Realm,
		OwnerID:   old.OwnerID,
		TenantID:  old.TenantID,
		Abilities: old.Abilities,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl()),
	}

	err = r.Store.WithTx(ctx, func(tx store.Tx) error {
		revoked, err := tx.Credentials().RevokeCredential(ctx, old.ID, now)
		if err != nil {
			return err
		}
		if !revoked {
			return ErrUnauthenticated
		}
		return tx.Credentials().CreateCredential(ctx, fresh)
	})
	if errors.Is(err, ErrUnauthenticated) {
		return "", domain.Credential{}, err
	}
	if err != nil {
		return "", domain.Credential{}, unavailable(err)
	}

	slogx.FromContext(ctx).Info("credential rotated",
		slog.String("old_credential_id", old.ID),
		slog.String("credential_id", fresh.ID),
		slog.String("realm", fresh.Realm.String()),
	)
	return token, fresh, nil
}

// lookupCredential resolves an opaque token by fingerprint. Any lookup miss
// is ErrUnauthenticated.
func lookupCredential(ctx context.Context, s store.Store, raw string) (domain.Credential, error) {
	if raw == "" {
		return domain.Credential{}, ErrUnauthenticated
	}
	cred, err := s.Credentials().GetCredentialByHash(ctx, cryptox.FingerprintToken(raw))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Credential{}, ErrUnauthenticated
	}
	if err != nil {
		return domain.Credential{}, unavailable(err)
	}
	return cred, nil
}
