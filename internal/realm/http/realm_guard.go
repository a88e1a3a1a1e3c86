package http

import (
	"context"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

type identityCtxKey struct{}

// RealmGuard admits only bearer credentials issued by realm. The verified
// identity, and with it the tenant filter, is available to handlers through
// identityFromContext.
func RealmGuard(v *service.CredentialVerifier, realm domain.Realm) httpx.Middleware {
	verify := func(ctx context.Context, token string) (context.Context, httpx.Principal, error) {
		id, err := v.Verify(ctx, token, realm)
		if err != nil {
			return ctx, httpx.Principal{}, err
		}

		ctx = context.WithValue(ctx, identityCtxKey{}, id)
		ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(
			"realm", id.Realm.String(),
			"subject", id.OwnerID,
		))
		return ctx, httpx.Principal{
			Subject:   id.OwnerID,
			Realm:     id.Realm.String(),
			Abilities: id.Abilities,
		}, nil
	}
	return httpx.AuthnMiddleware(verify, writeError)
}

func identityFromContext(ctx context.Context) (domain.VerifiedIdentity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(domain.VerifiedIdentity)
	return id, ok
}
