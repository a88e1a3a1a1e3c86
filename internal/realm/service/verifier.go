package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

// CredentialVerifier resolves bearer credentials for the realm guard.
type CredentialVerifier struct {
	Store store.Store
	Clock func() time.Time
}

func (v *CredentialVerifier) now() time.Time {
	if v.Clock != nil {
		return v.Clock().UTC()
	}
	return time.Now().UTC()
}

// Verify resolves raw and checks it was issued for requiredRealm. Missing,
// unknown, revoked, expired and wrong-realm credentials are all
// ErrUnauthenticated.
func (v *CredentialVerifier) Verify(
	ctx context.Context,
	raw string,
	requiredRealm domain.Realm,
) (domain.VerifiedIdentity, error) {
	cred, err := lookupCredential(ctx, v.Store, raw)
	if err != nil {
		return domain.VerifiedIdentity{}, err
	}

	now := v.now()
	if !cred.Usable(now) {
		return domain.VerifiedIdentity{}, ErrUnauthenticated
	}
	if cred.Realm != requiredRealm {
		slogx.FromContext(ctx).Warn("credential presented to another realm",
			slog.String("credential_id", cred.ID),
			slog.String("credential_realm", cred.Realm.String()),
			slog.String("required_realm", requiredRealm.String()),
		)
		return domain.VerifiedIdentity{}, ErrUnauthenticated
	}

	if err := v.Store.Credentials().TouchLastUsed(ctx, cred.ID, now); err != nil {
		slogx.FromContext(ctx).Debug("failed to record credential use",
			slog.String("credential_id", cred.ID),
			slog.Any("error", err),
		)
	}

	return domain.NewVerifiedIdentity(cred), nil
}

// Authorize is a membership test against the ability snapshot taken when the
// credential was issued.
func (v *CredentialVerifier) Authorize(id domain.VerifiedIdentity, ability string) error {
	if !id.Can(ability) {
		return ErrForbidden
	}
	return nil
}
